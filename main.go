// main.go - Main entry point for TeenyTurtle

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;40;200;90mTeenyTurtle\033[0m - turtle graphics peripheral on the IE32 bus")
	fmt.Println("Pen, motion and colour-change detection mapped at 0xD000-0xE0FF.")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := ParseConfig(os.Args[1:], os.Stdout)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	if cfg.ShowVersion {
		printFeatures(os.Stdout)
		return 0
	}
	if cfg.Verbose {
		boilerPlate()
	}

	machine, err := NewTurtleMachine(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	defer machine.Close()

	backend := VIDEO_BACKEND_EBITEN
	if cfg.Headless {
		backend = VIDEO_BACKEND_HEADLESS
	}
	video, err := NewVideoOutput(backend)
	if err != nil {
		fmt.Printf("Failed to initialize video: %v\n", err)
		return 1
	}
	if err := machine.SetVideoOutput(video); err != nil {
		fmt.Printf("Failed to configure video: %v\n", err)
		return 1
	}

	if cfg.Sound {
		if err := machine.EnableSound(); err != nil {
			fmt.Printf("Failed to initialize sound: %v\n", err)
			return 1
		}
	}
	if cfg.HostKeys {
		machine.EnableHostKeys()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var runErr error
	work := func() {
		runErr = machine.Run(ctx)
		if err := machine.SaveOutput(); err != nil && runErr == nil {
			runErr = err
		}
		// A finished drawing stays on screen until the window is closed
		if closable, ok := video.(ClosableOutput); ok && !cfg.Headless && cfg.Frames == 0 && runErr == nil {
			select {
			case <-closable.Done():
			case <-ctx.Done():
			}
		}
		video.Stop()
	}

	if mainLoop, ok := video.(MainLoopOutput); ok && !cfg.Headless {
		if err := mainLoop.RunOnMain(work); err != nil {
			fmt.Printf("Error: %v\n", err)
			return 1
		}
	} else {
		if err := video.Start(); err != nil {
			fmt.Printf("Failed to start video: %v\n", err)
			return 1
		}
		work()
	}

	if runErr != nil {
		fmt.Printf("Error: %v\n", runErr)
		return 1
	}
	if cfg.Verbose {
		fmt.Printf("machine: %d frames\n", machine.Scheduler().Frame())
	}
	return 0
}
