package dashboard

import (
	"os"
	"path/filepath"
)

// ExportCharts writes every live chart to outDir as <id>.png and returns
// the written paths.
func (c *Controller) ExportCharts(outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, id := range c.ChartIDs() {
		outPath := filepath.Join(outDir, id+".png")
		f, err := os.Create(outPath)
		if err != nil {
			return written, err
		}
		if err := c.WritePNG(id, f); err != nil {
			f.Close()
			return written, err
		}
		if err := f.Close(); err != nil {
			return written, err
		}
		written = append(written, outPath)
	}
	return written, nil
}
