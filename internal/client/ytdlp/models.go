package ytdlp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var errNoEntry = errors.New("no media entry in output")

// infoJSON mirrors the slice of yt-dlp's --print-json output used here.
// Recent releases report the final path under requested_downloads; older ones
// only set _filename.
type infoJSON struct {
	Title              string        `json:"title"`
	Filename           string        `json:"_filename"`
	RequestedDownloads []downloadDTO `json:"requested_downloads"`
}

type downloadDTO struct {
	Filepath string `json:"filepath"`
}

// parseInfo decodes the first JSON object printed by yt-dlp.
func parseInfo(out []byte) (infoJSON, error) {
	var info infoJSON
	if err := json.NewDecoder(bytes.NewReader(out)).Decode(&info); err != nil {
		if errors.Is(err, io.EOF) {
			return infoJSON{}, errNoEntry
		}
		return infoJSON{}, fmt.Errorf("decode yt-dlp output: %w", err)
	}
	return info, nil
}

func (i infoJSON) downloadedPath() string {
	for _, d := range i.RequestedDownloads {
		if d.Filepath != "" {
			return d.Filepath
		}
	}
	return i.Filename
}
