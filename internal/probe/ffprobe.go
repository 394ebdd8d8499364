package probe

import (
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/avharness/cutline/internal/timeline"
)

// FFProbe inspects media by shelling out to ffprobe. FPS converts the
// probed duration (seconds) to frames; zero falls back to 30.
type FFProbe struct {
	Binary string
	FPS    float64
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe implements [Prober].
func (f FFProbe) Probe(path string) (timeline.Meta, error) {
	binary := f.Binary
	if binary == "" {
		binary = "ffprobe"
	}

	out, err := exec.Command(binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path).Output()
	if err != nil {
		return timeline.Meta{}, fmt.Errorf("probe %s: %w", path, ErrUnreadable)
	}

	var parsed ffprobeOutput

	err = json.Unmarshal(out, &parsed)
	if err != nil {
		return timeline.Meta{}, fmt.Errorf("probe %s: parse: %w", path, ErrUnreadable)
	}

	seconds, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil || seconds <= 0 {
		return timeline.Meta{}, fmt.Errorf("probe %s: no duration: %w", path, ErrUnreadable)
	}

	meta := timeline.Meta{FPS: f.FPS}
	if meta.FPS <= 0 {
		meta.FPS = 30
	}

	for _, stream := range parsed.Streams {
		if stream.CodecType != "video" {
			continue
		}

		meta.Width = stream.Width
		meta.Height = stream.Height

		if fps, ok := parseFrameRate(stream.AvgFrameRate); ok {
			meta.FPS = fps
		}

		break
	}

	meta.DurationFrames = int64(math.Round(seconds * meta.FPS))
	if meta.DurationFrames < 1 {
		meta.DurationFrames = 1
	}

	return meta, nil
}

// parseFrameRate reads ffprobe's rational frame rate, e.g. "30000/1001".
func parseFrameRate(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		f, err := strconv.ParseFloat(s, 64)

		return f, err == nil && f > 0
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}

	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}

	fps := n / d

	return fps, fps > 0
}
