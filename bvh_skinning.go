package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mogaika/bvh_skinning/config"
	"github.com/mogaika/bvh_skinning/scene"
	"github.com/mogaika/bvh_skinning/web"
)

func main() {
	var configPath string
	var dumpConfig bool
	cfg := config.Default()

	flag.StringVar(&configPath, "config", "", "Path to yaml scene config")
	flag.StringVar(&cfg.Addr, "i", cfg.Addr, "Address of server")
	flag.StringVar(&cfg.Skeleton, "skeleton", "", "Path to bvh skeleton and motion")
	flag.StringVar(&cfg.Mesh, "mesh", "", "Path to obj rest mesh")
	flag.StringVar(&cfg.Weights, "weights", "", "Path to weight file")
	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "Skinning mode: rigid or smooth")
	flag.IntVar(&cfg.TickRate, "tick", cfg.TickRate, "Frames per second pushed to stream listeners, 0 - manual advance only")
	flag.StringVar(&cfg.Encoding, "encoding", "", "Charmap of bvh joint names, empty for utf-8")
	flag.BoolVar(&cfg.Paused, "paused", false, "Start paused")
	flag.BoolVar(&dumpConfig, "dumpconfig", false, "Print resulting config and exit")
	flag.Parse()

	if configPath != "" {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			log.Fatal(err)
		}
		// explicit flags win over the file
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "i":
				fileCfg.Addr = cfg.Addr
			case "skeleton":
				fileCfg.Skeleton = cfg.Skeleton
			case "mesh":
				fileCfg.Mesh = cfg.Mesh
			case "weights":
				fileCfg.Weights = cfg.Weights
			case "mode":
				fileCfg.Mode = cfg.Mode
			case "tick":
				fileCfg.TickRate = cfg.TickRate
			case "encoding":
				fileCfg.Encoding = cfg.Encoding
			case "paused":
				fileCfg.Paused = cfg.Paused
			}
		})
		cfg = fileCfg
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.Apply(); err != nil {
		log.Fatal(err)
	}

	if dumpConfig {
		data, err := cfg.Marshal()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(string(data))
		return
	}

	if cfg.Skeleton == "" {
		flag.PrintDefaults()
		os.Exit(2)
	}

	s := scene.New(cfg)
	if err := s.LoadConfigured(); err != nil {
		log.Fatal(err)
	}

	if err := web.StartServer(cfg.Addr, s, cfg.TickRate); err != nil {
		log.Fatal(err)
	}
}
