package main

import (
	"fmt"
	"log"
	"os"

	"github.com/dtnitsch/ngram-year-rank/internal/run"
	"github.com/dtnitsch/ngram-year-rank/pkg/help"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ngram-year-rank",
		Usage: "Top words per year from Google Books 1-gram files, for Pr(word | year)",
		Commands: []*cli.Command{
			run.Command(),
			{
				Name:  "quickstart",
				Usage: "Print input formats, output formats and example invocations",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.QuickstartYAML)
					return nil
				},
			},
		},
	}
}
