package ctrl

import (
	"bytes"
	"fmt"
	"io"
	"net"

	"github.com/openziti/mapview/cmd/mapview/mapview"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	clientCmd.Flags().StringVarP(&clientCommand, "command", "c", "write", "Command to send (start, stop, write, clean)")
	ctrlCmd.AddCommand(clientCmd)
}

var clientCmd = &cobra.Command{
	Use:   "client <socketPath>",
	Short: "Connect to a metrics instrument controller",
	Args:  cobra.ExactArgs(1),
	Run:   client,
}
var clientCommand string

func client(_ *cobra.Command, args []string) {
	path, err := mapview.ExpandPath(args[0])
	if err != nil {
		panic(err)
	}
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		panic(err)
	}
	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		panic(err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Write([]byte(fmt.Sprintf("%s\n", clientCommand))); err != nil {
		panic(err)
	}
	if err := conn.CloseWrite(); err != nil {
		panic(err)
	}
	response := new(bytes.Buffer)
	if _, err := io.Copy(response, conn); err != nil {
		panic(err)
	}
	logrus.Infof("response:\n%s\n", response.String())
}
