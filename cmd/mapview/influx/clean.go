package influx

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	influxCleanCmd.Flags().StringVarP(&cleanPipeline, "pipeline", "", "", "Only drop series for this pipeline id")
	influxCmd.AddCommand(influxCleanCmd)
}

var influxCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop pipeline metrics series from previous runs",
	Args:  cobra.NoArgs,
	Run:   influxClean,
}
var cleanPipeline string

func influxClean(_ *cobra.Command, _ []string) {
	for _, dataset := range datasets {
		if err := influxDropSeries(dataset, cleanPipeline); err != nil {
			panic(errors.Wrapf(err, "error dropping [%s]", dataset))
		}
		logrus.Infof("dropped series [%s]", dataset)
	}
}

// influxDropSeries goes through the 1.x query endpoint; the v2 client has no InfluxQL statement support.
func influxDropSeries(dataset, pipeline string) error {
	statement := fmt.Sprintf("DROP SERIES FROM \"%s\"", dataset)
	if pipeline != "" {
		statement += fmt.Sprintf(" WHERE \"pipeline\" = '%s'", pipeline)
	}
	query := url.QueryEscape(statement)
	resp, err := http.Post(fmt.Sprintf("%s/query?db=%s&q=%s", influxDbUrl, url.QueryEscape(influxDbDatabase), query), "text/plain", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(resp.Body)
		return errors.Errorf("status(%d, %s) %s", resp.StatusCode, resp.Status, string(body))
	}
	return nil
}
