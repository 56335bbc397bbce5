package influx

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/openziti/mapview/cmd/mapview/mapview"
	"github.com/openziti/mapview/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	influxLoadCmd.Flags().BoolVarP(&retime, "retime", "r", false, "Shift samples so the latest lands at the current time")
	influxCmd.AddCommand(influxLoadCmd)
}

var influxLoadCmd = &cobra.Command{
	Use:   "load <metricsRoot>",
	Short: "Load pipeline metrics samples into InfluxDB",
	Args:  cobra.ExactArgs(1),
	Run:   influxLoad,
}
var retime bool

func influxLoad(_ *cobra.Command, args []string) {
	root, err := mapview.ExpandPath(args[0])
	if err != nil {
		panic(err)
	}
	pipelines, err := discoverPipelines(root)
	if err != nil {
		panic(err)
	}
	offset := time.Duration(0)
	if retime {
		latest, err := findLatestTimestamp(pipelines)
		if err != nil {
			panic(err)
		}
		if !latest.IsZero() {
			offset = time.Since(latest)
		}
		logrus.Infof("retiming samples by [%s]", offset)
	}

	authToken := ""
	if influxDbUsername != "" || influxDbPassword != "" {
		authToken = fmt.Sprintf("%s:%s", influxDbUsername, influxDbPassword)
	}
	client := influxdb2.NewClient(influxDbUrl, authToken)
	defer client.Close()

	writeApi := client.WriteAPI("", influxDbDatabase)
	for _, p := range pipelines {
		for _, dataset := range datasets {
			data, err := util.ReadSamples(filepath.Join(p.path, dataset+".csv"))
			if err != nil {
				panic(errors.Wrapf(err, "error reading dataset [%s]", dataset))
			}
			for ts, v := range data {
				t := time.Unix(0, ts).Add(offset)
				pt := influxdb2.NewPoint(dataset, nil, map[string]interface{}{"v": v}, t).AddTag("pipeline", p.id)
				writeApi.WritePoint(pt)
			}
			logrus.Infof("wrote [%d] points for pipeline [%s] dataset [%s]", len(data), p.id, dataset)
		}
	}
	writeApi.Flush()
}

type pipeline struct {
	id   string
	path string
}

func discoverPipelines(root string) ([]*pipeline, error) {
	metrics, err := util.DiscoverMetrics(root)
	if err != nil {
		return nil, errors.Wrapf(err, "error discovering metrics in [%s]", root)
	}
	var pipelines []*pipeline
	for path, metricsId := range metrics {
		if metricsId.Values["instrument"] != "metrics" {
			logrus.Warnf("skipping [%s], not pipeline metrics", path)
			continue
		}
		pipelines = append(pipelines, &pipeline{id: metricsId.Id, path: path})
	}
	sort.Slice(pipelines, func(i, j int) bool { return pipelines[i].path < pipelines[j].path })
	return pipelines, nil
}

func findLatestTimestamp(pipelines []*pipeline) (time.Time, error) {
	latest := time.Time{}
	for _, p := range pipelines {
		for _, dataset := range datasets {
			data, err := util.ReadSamples(filepath.Join(p.path, dataset+".csv"))
			if err != nil {
				return time.Time{}, errors.Wrapf(err, "error reading dataset [%s]", dataset)
			}
			for ts := range data {
				if t := time.Unix(0, ts); t.After(latest) {
					latest = t
				}
			}
		}
	}
	return latest, nil
}

var datasets = []string{
	"allocations",
	"releases",
	"parameters",
	"frames_rendered",
	"render_ms",
	"frames_published",
	"publish_deferred",
	"slots_exhausted",
	"reuse_skipped",
	"slots_recycled",
	"frames_acquired",
	"frames_released",
	"errors",
}
