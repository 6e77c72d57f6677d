package railswitch

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ExportToCSV writes edges and switches into two files: `<name>_edges.csv` and `<name>_switches.csv`
func (w *World) ExportToCSV(fname string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	fnameParts := strings.Split(fname, ".csv")
	fnameEdges := fnameParts[0] + "_edges.csv"
	fnameSwitches := fnameParts[0] + "_switches.csv"

	err := w.exportEdgesToCSV(fnameEdges)
	if err != nil {
		return errors.Wrap(err, "Can't export edges")
	}

	err = w.exportSwitchesToCSV(fnameSwitches)
	if err != nil {
		return errors.Wrap(err, "Can't export switches")
	}
	return nil
}

func (w *World) exportEdgesToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"id", "source_node", "target_node", "length", "enabled", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, edge := range w.graph.Edges() {
		geom, _ := w.graph.EdgeWKT(edge.ID)
		err = writer.Write([]string{
			fmt.Sprintf("%d", edge.ID),
			fmt.Sprintf("%d", edge.Source),
			fmt.Sprintf("%d", edge.Target),
			fmt.Sprintf("%f", edge.Length),
			fmt.Sprintf("%t", edge.Enabled),
			geom,
		})
		if err != nil {
			return errors.Wrap(err, "Can't write edge")
		}
	}
	writer.Flush()
	return writer.Error()
}

func (w *World) exportSwitchesToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"id", "state", "automatic", "exits_num", "has_straight", "has_left", "has_right", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, sw := range w.sortedSwitches() {
		err = writer.Write([]string{
			sw.ID.String(),
			sw.State().String(),
			fmt.Sprintf("%t", sw.IsAutomatic()),
			fmt.Sprintf("%d", len(sw.Exits())),
			fmt.Sprintf("%t", sw.HasStraightExit()),
			fmt.Sprintf("%t", sw.HasLeftExit()),
			fmt.Sprintf("%t", sw.HasRightExit()),
			SwitchWKT(sw),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write switch")
		}
	}
	writer.Flush()
	return writer.Error()
}
