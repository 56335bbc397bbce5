package render

import (
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gogpu/gg"
	"github.com/openziti/mapview"
	"github.com/openziti/mapview/carto"
	cli "github.com/openziti/mapview/cmd/mapview/mapview"
	"github.com/openziti/mapview/util"
	"github.com/openziti/mapview/viewer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	renderCmd.Flags().StringVarP(&output, "output", "o", "map.png", "Output PNG path")
	renderCmd.Flags().IntVarP(&frames, "frames", "n", 10, "Number of frames to step through")
	renderCmd.Flags().Float64VarP(&centerX, "center-x", "x", 0, "Initial view center x")
	renderCmd.Flags().Float64VarP(&centerY, "center-y", "y", 0, "Initial view center y")
	renderCmd.Flags().Float64VarP(&zoom, "zoom", "z", 1, "Initial zoom (pixels per map unit)")
	renderCmd.Flags().Float64Var(&panX, "pan-x", 8, "Display pixels to pan horizontally per frame")
	renderCmd.Flags().Float64Var(&panY, "pan-y", 0, "Display pixels to pan vertically per frame")
	renderCmd.Flags().Float64Var(&scale, "scale", 1, "Display density factor")
	renderCmd.Flags().DurationVar(&frameTimeout, "timeout", 5*time.Second, "Maximum wait for each frame")
	renderCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running, re-rendering when the map definition changes")
	cli.RootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <mapDefinition>",
	Short: "Drive the render pipeline headless and write the displayed frame",
	Args:  cobra.ExactArgs(1),
	Run:   render,
}
var output string
var frames int
var centerX float64
var centerY float64
var zoom float64
var panX float64
var panY float64
var scale float64
var frameTimeout time.Duration
var watch bool

func render(_ *cobra.Command, args []string) {
	p, err := cli.Profile()
	if err != nil {
		logrus.Fatalf("error loading profile (%v)", err)
	}
	path, err := cli.ExpandPath(args[0])
	if err != nil {
		logrus.Fatalf("error (%v)", err)
	}
	outPath, err := cli.ExpandPath(output)
	if err != nil {
		logrus.Fatalf("error (%v)", err)
	}
	logrus.Infof("[%d] slots of [%dx%d] use [%s]", p.SlotCount, p.Width, p.Height, util.BytesToSize(int64(p.SlotCount*p.Width*p.Height*4)))

	d, err := viewer.NewDisplay(&mapview.Config{
		Id:            "render",
		Profile:       p,
		Engine:        carto.NewEngine(),
		MapDefinition: filepath.Base(path),
		BasePath:      filepath.Dir(path),
		Initial:       mapview.NewViewParameters(centerX, centerY, zoom),
	})
	if err != nil {
		logrus.Fatalf("error starting pipeline (%v)", err)
	}
	defer d.Close()
	d.SetScale(scale)

	for i := 0; i < frames; i++ {
		if i > 0 {
			if err := d.Pan(panX, panY); err != nil {
				logrus.Fatalf("error panning (%v)", err)
			}
		}
		frame, err := awaitFrame(d, frameTimeout)
		if err != nil {
			logrus.Fatalf("error (%v)", err)
		}
		logrus.Infof("frame seq #%d from slot #%d at %s", frame.Handle.Seq(), frame.Handle.Slot(), frame.Handle.Parameters())
	}
	if err := writePng(d, outPath); err != nil {
		logrus.Fatalf("error writing [%s] (%v)", outPath, err)
	}

	if watch {
		if err := watchMap(d, outPath); err != nil {
			logrus.Fatalf("error (%v)", err)
		}
	}

	stats := d.Handle().Stats()
	logrus.Infof("rendered [%d], published [%d], recycled [%d], exhausted [%d], reuse skipped [%d]",
		stats.FramesRendered, stats.FramesPublished, stats.SlotsRecycled, stats.SlotsExhausted, stats.ReuseSkipped)

	if mi, ok := p.Instrument().(*mapview.MetricsInstrument); ok {
		d.Close()
		if err := mi.WriteAllSamples(); err != nil {
			logrus.Errorf("error writing metrics (%v)", err)
		}
	}
}

// awaitFrame refreshes until the display holds a frame rendered with its current parameters.
func awaitFrame(d *viewer.Display, timeout time.Duration) (*viewer.Frame, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		frame, err := d.Refresh()
		if err != nil {
			return nil, err
		}
		if frame != nil && frame.Handle.Parameters() == d.Parameters() {
			return frame, nil
		}
		time.Sleep(time.Millisecond)
	}
	return nil, errors.Errorf("no frame for %s after [%s]", d.Parameters(), timeout)
}

func watchMap(d *viewer.Display, outPath string) error {
	if err := d.Watch(); err != nil {
		return err
	}
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	logrus.Infof("watching for map changes, interrupt to exit")
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			frame, err := d.Refresh()
			if err != nil {
				return err
			}
			if frame != nil && frame.Fresh {
				if err := writePng(d, outPath); err != nil {
					return err
				}
			}
		case <-sigs:
			return nil
		}
	}
}

func writePng(d *viewer.Display, outPath string) error {
	w := int(float64(d.Width()) * scale)
	h := int(float64(d.Height()) * scale)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	d.Present(dst)
	if err := gg.FromImage(dst).SavePNG(outPath); err != nil {
		return err
	}
	logrus.Debugf("wrote [%dx%d] to [%s]", w, h, outPath)
	return nil
}
