package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-crossover/internal/config"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the config file",
		Action: func(_ context.Context, cmd *cli.Command) error {
			schema, err := config.Schema()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.Root().Writer, schema)

			return err
		},
	}
}
