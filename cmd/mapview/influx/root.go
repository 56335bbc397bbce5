package influx

import (
	"github.com/openziti/mapview/cmd/mapview/mapview"
	"github.com/spf13/cobra"
)

func init() {
	influxCmd.PersistentFlags().StringVarP(&influxDbUrl, "url", "", "http://localhost:8086", "InfluxDB URL")
	influxCmd.PersistentFlags().StringVarP(&influxDbUsername, "username", "", "", "InfluxDB Username")
	influxCmd.PersistentFlags().StringVarP(&influxDbPassword, "password", "", "", "InfluxDB Password")
	influxCmd.PersistentFlags().StringVarP(&influxDbDatabase, "database", "", "mapview", "InfluxDB Database")
	mapview.RootCmd.AddCommand(influxCmd)
}

var influxCmd = &cobra.Command{
	Use:   "influx",
	Short: "Manage pipeline metrics in InfluxDB",
}
var influxDbUrl string
var influxDbUsername string
var influxDbPassword string
var influxDbDatabase string
