package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/gopsx/core/psx"
)

func main() {
	app := cli.NewApp()
	app.Name = "gopsx"
	app.Description = "A PlayStation core: CPU, bus, and peripherals, no display front end"
	app.Usage = "gopsx --bios <BIOS file> [options]"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "bios",
			Usage: "Path to the BIOS image (512 KiB)",
		},
		cli.StringFlag{
			Name:  "exe",
			Usage: "Path to a PS-X EXE to side-load, bypassing the BIOS boot path",
		},
		cli.DurationFlag{
			Name:  "run-time",
			Usage: "Wall-clock time to run before exiting",
			Value: 5 * time.Second,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("gopsx exited with error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	biosPath := c.String("bios")
	if biosPath == "" {
		cli.ShowAppHelp(c)
		return errors.New("no BIOS image provided")
	}

	biosImage, err := os.ReadFile(biosPath)
	if err != nil {
		return fmt.Errorf("reading bios: %w", err)
	}

	system, err := psx.New(biosImage, nil, slog.Default())
	if err != nil {
		return fmt.Errorf("building system: %w", err)
	}

	if exePath := c.String("exe"); exePath != "" {
		exeImage, err := os.ReadFile(exePath)
		if err != nil {
			return fmt.Errorf("reading exe: %w", err)
		}
		if err := system.LoadExe(exeImage); err != nil {
			return fmt.Errorf("loading exe: %w", err)
		}
	}

	runTime := c.Duration("run-time")
	slog.Info("running", "bios", biosPath, "run_time", runTime)

	reason := system.Run(context.Background(), runTime)
	slog.Info("stopped", "reason", reason)
	return nil
}
