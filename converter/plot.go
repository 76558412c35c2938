package converter

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/bvhplayer/bvh"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ChannelColumn returns the index in a frame of the channel named
// "Joint.Channel". The channel name is case insensitive.
func ChannelColumn(sk *bvh.Skeleton, name string) (int, error) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return 0, errors.Errorf("channel name must be Joint.Channel: %s", name)
	}
	jointName, channelName := name[:i], name[i+1:]
	offset := 0
	for _, j := range sk.Animated {
		if j.Name == jointName {
			for ci, c := range j.Channels {
				if strings.EqualFold(c.String(), channelName) {
					return offset + ci, nil
				}
			}
		}
		offset += len(j.Channels)
	}
	return 0, errors.Errorf("channel not found: %s", name)
}

// PlotChannels returns a line chart of channel values over time.
// Frames too short for a channel are skipped for that line.
func PlotChannels(doc *bvh.Document, names []string) (*plot.Plot, error) {
	if len(names) == 0 {
		return nil, errors.New("no channels")
	}
	p := plot.New()
	p.Title.Text = "motion"
	p.X.Label.Text = "time"
	p.Y.Label.Text = "value"

	var lines []interface{}
	for _, name := range names {
		col, err := ChannelColumn(doc.Skeleton, name)
		if err != nil {
			return nil, err
		}
		var pts plotter.XYs
		for i, f := range doc.Motion.Frames {
			if col < len(f) {
				pts = append(pts, plotter.XY{X: float64(i) * doc.Motion.FrameTime, Y: float64(f[col])})
			}
		}
		lines = append(lines, name, pts)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, err
	}
	return p, nil
}

func IsPlotFormat(format string) bool {
	switch format {
	case "png", "svg", "pdf":
		return true
	}
	return false
}

// SavePlot writes the chart as png, svg or pdf depending on the extension.
func SavePlot(p *plot.Plot, width, height vg.Length, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !IsPlotFormat(format) {
		return errors.Errorf("unsupported plot format: %s", path)
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if _, err := wt.WriteTo(w); err != nil {
		return err
	}
	return w.Flush()
}
