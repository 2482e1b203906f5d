package cmd

import (
	"context"
	"fmt"

	"github.com/rubiojr/pkgsearch/pkg/version"
	"github.com/urfave/cli/v3"
)

// VersionCommand prints the release, or just the number with --short.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "short",
				Usage: "Print only the version number",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("short") {
				fmt.Println(version.APIVersion())
				return nil
			}
			fmt.Println(version.BuildVersion())
			return nil
		},
	}
}
