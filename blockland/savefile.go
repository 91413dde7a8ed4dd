package blockland

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	saveWarning = "This is a Blockland save file.  You probably shouldn't modify it cause you'll screw it up."
	ownerLine   = "+-OWNER 999999"
	lineEnd     = "\r\n"
)

var colorset = []string{
	"0.898039 0.000000 0.000000 1.000000",
	"0.898039 0.898039 0.000000 1.000000",
	"0.000000 0.498039 0.247059 1.000000",
	"0.200000 0.000000 0.800000 1.000000",
	"0.898039 0.898039 0.898039 1.000000",
	"0.749020 0.749020 0.749020 1.000000",
	"0.498039 0.498039 0.498039 1.000000",
	"0.200000 0.200000 0.200000 1.000000",
	"0.392157 0.192157 0.000000 1.000000",
	"0.901961 0.337255 0.078431 1.000000",
	"0.749020 0.176471 0.482353 1.000000",
	"0.384314 0.000000 0.113725 1.000000",
	"0.129412 0.266667 0.266667 1.000000",
	"0.000000 0.137255 0.329412 1.000000",
	"0.101961 0.458824 0.764706 1.000000",
	"1.000000 1.000000 1.000000 1.000000",
	"0.078431 0.078431 0.078431 1.000000",
	"1.000000 1.000000 1.000000 0.247059",
	"0.921569 0.513726 0.674510 1.000000",
	"1.000000 0.603922 0.419608 1.000000",
	"1.000000 0.874510 0.611765 1.000000",
	"0.956863 0.874510 0.784314 1.000000",
	"0.784314 0.921569 0.486275 1.000000",
	"0.537255 0.694118 0.549020 1.000000",
	"0.556863 0.929412 0.956863 1.000000",
	"0.694118 0.658824 0.901961 1.000000",
	"0.874510 0.556863 0.956863 1.000000",
	"0.666667 0.000000 0.000000 0.698039",
	"1.000000 0.498039 0.000000 0.698039",
	"0.988235 0.956863 0.000000 0.698039",
	"0.000000 0.470588 0.192157 0.698039",
	"0.000000 0.200000 0.639216 0.698039",
	"0.592157 0.156863 0.392157 0.694118",
	"0.549020 0.698039 1.000000 0.698039",
	"0.847059 0.847059 0.847059 0.698039",
	"0.098039 0.098039 0.098039 0.698039",
}

// paletteSize is the number of colour lines a save file
// always carries. Unused slots are filled with magenta.
const paletteSize = 64

const unusedColor = "1.000000 0.000000 1.000000 0.000000"

// SaveHeader gets the static header of a save file, up to
// but not including the line count.
func SaveHeader() string {
	var b strings.Builder
	b.WriteString(saveWarning + lineEnd)
	b.WriteString("1" + lineEnd)
	b.WriteString(lineEnd)
	for i := 0; i < paletteSize; i++ {
		if i < len(colorset) {
			b.WriteString(colorset[i])
		} else {
			b.WriteString(unusedColor)
		}
		b.WriteString(lineEnd)
	}
	return b.String()
}

// BrickName gets the UI name of the brick's datablock.
func BrickName(b Brick) string {
	if b.Size > 1 {
		return fmt.Sprintf("%dx Cube", b.Size)
	} else if b.Bottom1xCube {
		return "1x Cube Bottom"
	}
	return "1x Cube Top"
}

// FormatBrick formats a brick as a save file line, without
// the trailing line ending.
func FormatBrick(b Brick) string {
	x := strconv.FormatFloat(float64(b.Position[0]), 'f', -1, 32)
	y := strconv.FormatFloat(float64(b.Position[1]), 'f', -1, 32)
	var z string
	if b.Size > 1 {
		z = strconv.FormatFloat(float64(b.Position[2]), 'f', -1, 32)
	} else {
		z = strconv.FormatFloat(float64(b.Position[2]), 'f', 1, 32)
	}
	floored := 0
	if b.Floored {
		floored = 1
	}
	return fmt.Sprintf("%s\" %s %s %s 0 %d 0  0 0 1 1 1", BrickName(b), x, y, z, floored)
}

// WriteSaveFile writes a complete save file containing
// the bricks, returning the number of bytes written.
func WriteSaveFile(w io.Writer, bricks []Brick) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	bw.WriteString(SaveHeader())
	bw.WriteString("Linecount " + strconv.Itoa(len(bricks)) + lineEnd)
	for _, b := range bricks {
		bw.WriteString(FormatBrick(b) + lineEnd)
		bw.WriteString(ownerLine + lineEnd)
	}
	if err := bw.Flush(); err != nil {
		return cw.n, errors.Wrap(err, "write save file")
	}
	return cw.n, nil
}

// SaveFileString renders a complete save file in memory.
func SaveFileString(bricks []Brick) string {
	var b strings.Builder
	WriteSaveFile(&b, bricks)
	return b.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
