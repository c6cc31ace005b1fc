package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/muesli/termenv"

	"lumen/generator"
	"lumen/logger"
	"lumen/preview"
	"lumen/services"
	"lumen/session"
	"lumen/theme"
	"lumen/tui"
)

var (
	generatorName string
	model         string
	size          string
	timeout       time.Duration
	outputDir     string
	order         string
	light         bool
	startDir      string
	logPath       string
)

func init() {
	flag.StringVar(
		&generatorName,
		"generator",
		envOr("LUMEN_GENERATOR", "placeholder"),
		"Image generator: "+strings.Join(generator.Names(), " | "),
	)
	flag.StringVar(&model, "model", "", "Backend model (default depends on the generator)")
	flag.StringVar(&size, "size", "1024x1024", "Size of the generated image")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Generation timeout")
	flag.StringVar(
		&outputDir,
		"out",
		envOr("LUMEN_OUTPUT_DIR", "~/.lumen/img"),
		"Directory generated images are written to",
	)
	flag.StringVar(&order, "order", "arrival", "Preview order: arrival | input")
	flag.BoolVar(
		&light,
		"light",
		theme.ParseMode(os.Getenv("LUMEN_MODE")) == theme.Light,
		"Start in light mode",
	)
	flag.StringVar(&startDir, "dir", "", "Start directory of the file picker (default cwd)")
	flag.StringVar(&logPath, "log", "~/.lumen/debug.log", "Debug log file")
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func expand(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		log.Printf("could not expand %s: %v", path, err)
		return path
	}
	return expanded
}

// filesFromArgs stats every argument. Directories and missing paths are
// reported and skipped; everything else is part of the first selection.
func filesFromArgs(args []string) []session.File {
	var files []session.File
	for _, arg := range args {
		path := expand(arg)
		info, err := os.Stat(path)
		if err != nil {
			logger.Screen(fmt.Sprintf("skipping %s: %v", arg, err), color.New(color.FgYellow))
			continue
		}
		if info.IsDir() {
			logger.Screen(fmt.Sprintf("skipping directory %s", arg), color.New(color.FgYellow))
			continue
		}
		files = append(files, session.File{
			Name: filepath.Base(path),
			Path: path,
			Size: info.Size(),
		})
	}
	return files
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Print("No .env file loaded")
	}

	flag.Parse()

	if err := logger.Init(expand(logPath)); err != nil {
		log.Printf("could not open log file: %v", err)
	}
	defer logger.Close()

	cfg := generator.Config{
		Model:     model,
		Size:      size,
		OutputDir: expand(outputDir),
	}

	if generatorName != "placeholder" {
		cfg.APIKey, err = services.ResolveAPIKey(context.Background(), os.Getenv, nil)
		if err != nil {
			logger.Screen(fmt.Sprintf("could not resolve api key: %v", err), color.New(color.FgRed))
			os.Exit(1)
		}
	}

	gen, err := generator.New(generatorName, cfg)
	if err != nil {
		logger.Screen(err.Error(), color.New(color.FgRed))
		os.Exit(1)
	}

	mode := theme.Dark
	if light {
		mode = theme.Light
	}

	loader := preview.NewLoader()
	loader.DataURLs = generator.UsesReferences(gen)

	output := termenv.NewOutput(os.Stdout)
	renderer := lipgloss.NewRenderer(os.Stdout)

	logger.Debug.Printf("starting with generator %s, order %s, mode %s", gen.Name(), order, mode)

	err = tui.Run(tui.TUIConfig{
		Generator: gen,
		Timeout:   timeout,
		Size:      size,
		Order:     session.ParseOrder(order),
		Mode:      mode,
		StartDir:  expand(startDir),
		Initial:   filesFromArgs(flag.Args()),
		Renderer:  renderer,
		Surface:   theme.NewTerminalSurface(output, renderer),
		Loader:    loader,
	})
	if err != nil {
		logger.Screen(fmt.Sprintf("error running lumen: %v", err), color.New(color.FgRed))
		os.Exit(1)
	}
}
