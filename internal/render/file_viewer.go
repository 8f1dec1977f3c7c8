package render

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// FileViewer is a Viewer for machines without a display. Frames are written
// as PNG to a fixed path and keys are read as lines from in.
type FileViewer struct {
	out    string
	in     *bufio.Reader
	prompt io.Writer
	img    image.Image
}

func NewFileViewer(out string, in *bufio.Reader, prompt io.Writer) *FileViewer {
	return &FileViewer{out: out, in: in, prompt: prompt}
}

func (v *FileViewer) Open(path string) (size image.Point, err error) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return size, fmt.Errorf("decode %s: %w", path, err)
	}

	v.img = img
	return img.Bounds().Size(), nil
}

func (v *FileViewer) Show(f Frame) error {
	if v.img == nil {
		return errors.New("no image opened")
	}

	fw, err := os.OpenFile(v.out, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := png.Encode(fw, Rasterize(v.img, f)); err != nil {
		return err
	}

	log.WithFields(log.Fields{"title": f.Title, "file": v.out}).Info("Frame written")
	return nil
}

// WaitKey reads one line and returns its first byte. "esc" and end of input
// both read as Escape.
func (v *FileViewer) WaitKey() (int, error) {
	fmt.Fprint(v.prompt, "key> ")

	line, err := v.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	line = strings.TrimSpace(line)
	switch {
	case strings.EqualFold(line, "esc"):
		return KeyEsc, nil
	case line == "" && err != nil:
		return KeyEsc, nil
	case line == "":
		return 0, nil
	}

	return int(line[0]), nil
}

func (v *FileViewer) Close() error {
	v.img = nil
	return nil
}
