package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mogaika/bvh_skinning/bvh"
	"github.com/mogaika/bvh_skinning/config"
	"github.com/mogaika/bvh_skinning/skeleton"
	"github.com/mogaika/bvh_skinning/utils"
)

func main() {
	var frame int
	var tolerance float64
	var encoding string
	var dofs, spew bool
	flag.IntVar(&frame, "frame", -1, "Dump joint tree posed at frame")
	flag.BoolVar(&dofs, "dofs", true, "Print rotation degrees of freedom per joint")
	flag.Float64Var(&tolerance, "tolerance", skeleton.DEFAULT_DOF_TOLERANCE, "Smallest rotation range counted as a degree of freedom")
	flag.StringVar(&encoding, "encoding", "", "Charmap of joint names, empty for utf-8")
	flag.BoolVar(&spew, "spew", false, "Dump parsed joints with go-spew")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] file.bvh\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := config.SetEncoding(encoding); err != nil {
		log.Fatal(err)
	}

	m, err := bvh.ParseFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	s := skeleton.New(m)
	fmt.Printf("joints: %d, edges: %d, channels: %d, frames: %d, frame time: %vs, duration: %vs\n",
		m.JointCount(), m.EdgeCount(), m.ChannelCount(), m.FrameCount, m.FrameTime, m.Duration())
	fmt.Print(s.String())

	if dofs {
		fmt.Print(s.DOFReport(tolerance))
	}
	if frame >= 0 {
		if frame >= s.FrameCount() {
			log.Fatalf("Frame %d out of range [0, %d)", frame, s.FrameCount())
		}
		fmt.Print(s.Dump(frame))
	}
	if spew {
		utils.Dump(m.Joints)
	}
}
