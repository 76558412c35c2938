package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/bvhplayer/anim"
	"github.com/binzume/bvhplayer/bvh"
	"github.com/binzume/bvhplayer/config"
	"github.com/binzume/bvhplayer/converter"
	"github.com/binzume/bvhplayer/gltfutil"
	"github.com/binzume/bvhplayer/preview"
	"github.com/pkg/errors"
	"gonum.org/v1/plot/vg"
)

// radius of joint dots in file units
const markerRadius = 1

func defaultOutputFile(input string) string {
	ext := strings.ToLower(filepath.Ext(input))
	base := input[0 : len(input)-len(ext)]
	if ext == ".bvh" {
		return base + ".glb"
	}
	return input + ".glb"
}

func saveDocument(doc *bvh.Document, output string, conf *config.Config, scaleSet bool) error {
	ext := strings.ToLower(filepath.Ext(output))
	if conf.Export.Plot != "" {
		p, err := converter.PlotChannels(doc, strings.Split(conf.Export.Plot, ","))
		if err != nil {
			return err
		}
		return converter.SavePlot(p, 6*vg.Inch, 4*vg.Inch, output)
	}
	if ext == ".glb" || ext == ".gltf" {
		conv := converter.NewBVHToGLTFConverter(&converter.BVHToGLTFOption{
			Scale:         conf.Export.Scale,
			AnimationName: conf.Export.AnimationName,
			NoSkin:        conf.Export.NoSkin,
		})
		gltfdoc, err := conv.Convert(doc)
		if err != nil {
			return err
		}
		return gltfutil.Save(gltfdoc, output)
	} else if ext == ".bvh" {
		if scaleSet {
			doc.Scale(conf.Export.Scale)
		}
		return bvh.Save(doc, output)
	} else if ext == ".csv" {
		mode, err := converter.ParseCSVMode(conf.Export.CSV)
		if err != nil {
			return err
		}
		scale := float32(1)
		if scaleSet {
			scale = conf.Export.Scale
		}
		w, err := os.Create(output)
		if err != nil {
			return err
		}
		defer w.Close()
		return converter.WriteCSV(doc, w, mode, scale)
	} else if preview.IsImageFormat(preview.FormatFromPath(output)) {
		return saveImage(doc, output, conf)
	}
	return fmt.Errorf("Unsuppored output type: %v", ext)
}

func previewOptions(conf *config.Config) (*preview.Options, error) {
	bg, err := config.ParseColor(conf.Preview.Background)
	if err != nil {
		return nil, err
	}
	return &preview.Options{
		Width:       conf.Preview.Width,
		Height:      conf.Preview.Height,
		Supersample: conf.Preview.Supersample,
		Yaw:         conf.Preview.Yaw,
		Pitch:       conf.Preview.Pitch,
		LineWidth:   conf.Preview.LineWidth,
		Background:  bg,
	}, nil
}

func newPlayer(doc *bvh.Document, conf *config.Config) *anim.Player {
	player := anim.NewPlayer(doc.Skeleton, doc.Motion)
	player.SetLoop(conf.Player.Loop)
	player.SetSpeed(conf.Player.Speed)
	if conf.Player.Autoplay {
		player.Play()
	}
	return player
}

func saveImage(doc *bvh.Document, output string, conf *config.Config) error {
	opt, err := previewOptions(conf)
	if err != nil {
		return err
	}
	sk := doc.Skeleton
	player := newPlayer(doc, conf)
	sk.Graph.AddComponent(sk.Root.Node, "player", player)

	if conf.Preview.Animated {
		frames, err := preview.RenderClip(sk.Graph, sk.Root.Node, player, conf.Preview.FPS, opt)
		if err != nil {
			return err
		}
		log.Printf("%d frames\n", len(frames))
		return preview.SaveAnimation(frames, uint(1000/conf.Preview.FPS), conf.Player.Loop, output)
	}

	poseAt(sk, player, conf.Preview.Time)
	return preview.Save(preview.RenderPose(sk.Graph, sk.Root.Node, opt), output)
}

// poseAt applies the frame at t seconds regardless of the speed and autoplay
// settings of the player.
func poseAt(sk *bvh.Skeleton, player *anim.Player, t float64) {
	if player.FrameCount() == 0 {
		return
	}
	player.Seek(t)
	// runs the player component as a host loop would do for one tick
	sk.Graph.Update(sk.Root.Node, 0)
	if err := player.LastError(); err != nil {
		log.Println("WARN:", err)
	}
	log.Printf("frame: %d/%d\n", player.CurrentFrame(), player.FrameCount())
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s input.bvh [output.glb]\n", os.Args[0])
		flag.PrintDefaults()
	}
	confFile := flag.String("config", "", "yaml config file. default: input.bvhconv.yaml")
	scale := flag.Float64("scale", 0, "scale for offsets and positions. default: 0.01 for glTF")
	noSkin := flag.Bool("noskin", false, "no skin (.glb)")
	csvMode := flag.String("csv", "", "hierarchy, pos or rot (.csv)")
	plotChannels := flag.String("plot", "", "plot channels e.g. Hips.Xrotation,Hips.Yrotation (.png .svg .pdf)")
	start := flag.Int("start", 0, "first frame")
	end := flag.Int("end", -1, "end frame (exclusive). -1: last")
	t := flag.Float64("time", 0, "time of the pose in seconds (image)")
	size := flag.Int("size", 0, "image size")
	yaw := flag.Float64("yaw", 0, "camera yaw in degrees (image)")
	pitch := flag.Float64("pitch", 0, "camera pitch in degrees (image)")
	animate := flag.Bool("anim", false, "animated webp (.webp)")
	fps := flag.Float64("fps", 0, "frame rate (-anim)")
	loop := flag.Bool("loop", true, "loop playback")
	speed := flag.Float64("speed", 1, "playback speed")
	info := flag.Bool("info", false, "print hierarchy and motion summary")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)
	output := defaultOutputFile(input)
	if flag.NArg() > 1 {
		output = flag.Arg(1)
	}

	if *confFile == "" {
		*confFile = config.FindFor(input)
	}
	conf := config.Default()
	if *confFile != "" {
		var err error
		conf, err = config.Load(*confFile)
		if err != nil {
			log.Fatal(err)
		}
		log.Println("config: ", *confFile)
	}

	scaleSet := false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scale":
			conf.Export.Scale = float32(*scale)
			scaleSet = true
		case "noskin":
			conf.Export.NoSkin = *noSkin
		case "csv":
			conf.Export.CSV = *csvMode
		case "plot":
			conf.Export.Plot = *plotChannels
		case "start":
			conf.Export.StartFrame = *start
		case "end":
			conf.Export.EndFrame = *end
		case "time":
			conf.Preview.Time = *t
		case "size":
			conf.Preview.Width = *size
			conf.Preview.Height = *size
		case "yaw":
			conf.Preview.Yaw = float32(*yaw)
		case "pitch":
			conf.Preview.Pitch = float32(*pitch)
		case "anim":
			conf.Preview.Animated = *animate
		case "fps":
			conf.Preview.FPS = *fps
		case "loop":
			conf.Player.Loop = *loop
		case "speed":
			conf.Player.Speed = *speed
		}
	})
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}

	doc, err := bvh.LoadWithMarkers(input, markerRadius)
	if errors.Is(err, bvh.ErrMotionSectionMissing) {
		log.Println("WARN:", err)
	} else if err != nil {
		log.Fatal(err)
	}

	if conf.Export.StartFrame != 0 || conf.Export.EndFrame >= 0 {
		doc.Motion = doc.Motion.Slice(conf.Export.StartFrame, conf.Export.EndFrame)
	}

	if *info {
		printInfo(os.Stdout, doc)
		return
	}

	log.Print("out: ", output)
	if err = saveDocument(doc, output, conf, scaleSet); err != nil {
		log.Fatal(err)
	}
}
