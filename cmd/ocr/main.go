// Command ocr recognizes image files through the provider chain and prints
// one JSON result per file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"ocrgateway/internal/bootstrap"
	"ocrgateway/internal/config"
	"ocrgateway/internal/logger"
	"ocrgateway/internal/ocr"
	"ocrgateway/pkg"
)

type fileResult struct {
	File   string     `json:"file"`
	Result ocr.Result `json:"result"`
}

func main() {
	os.Exit(run())
}

func run() int {
	configFile := flag.String("config", "", "path to config.yml")
	envFile := flag.String("env", "", "path to .env")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file] [-env file] IMAGE...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(config.WithConfigFile(*configFile), config.WithEnvFile(*envFile))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	// stdout carries results only.
	cfg.Log.Output = "stderr"
	logger.Init(cfg.Log)
	log := logger.Get("cli")

	manager, err := bootstrap.NewManager(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code := 0
	for _, path := range flag.Args() {
		var res ocr.Result
		data, err := ocr.LoadImage(path)
		if err != nil {
			res = ocr.Failure(err)
		} else {
			res = manager.Recognize(ctx, data)
		}
		if err := res.Err(); err != nil {
			log.Warn("recognition failed", logger.Fields("file", path, logger.FieldError, err.Error()))
			code = 1
		}
		if err := pkg.Print(os.Stdout, fileResult{File: path, Result: res}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return code
}
