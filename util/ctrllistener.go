package util

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ctrlListeners = make(map[string]*CtrlListener)
var ctrlMutex sync.Mutex

type CtrlCallback func(line string, conn net.Conn) (int64, error)

// CtrlListener accepts line-oriented commands on a unix socket and dispatches them to registered callbacks by their
// first token. Every command is answered with "ok" or an error line.
//
type CtrlListener struct {
	listener  net.Listener
	lock      sync.Mutex
	callbacks map[string][]CtrlCallback
	running   bool
}

// GetCtrlListener returns the process-wide listener for root and id, creating <root>/<id>.<pid>.sock on first use.
func GetCtrlListener(root, id string) (cl *CtrlListener, err error) {
	ctrlMutex.Lock()
	defer ctrlMutex.Unlock()

	address := CtrlSocketPath(root, id)
	if cl, found := ctrlListeners[address]; found {
		return cl, nil
	}

	cl = &CtrlListener{callbacks: make(map[string][]CtrlCallback)}
	unixAddress, err := net.ResolveUnixAddr("unix", address)
	if err != nil {
		return nil, errors.Wrap(err, "error resolving unix address")
	}
	cl.listener, err = net.ListenUnix("unix", unixAddress)
	if err != nil {
		return nil, errors.Wrap(err, "error listening")
	}
	ctrlListeners[address] = cl
	return cl, nil
}

func CtrlSocketPath(root, id string) string {
	return filepath.Join(root, fmt.Sprintf("%s.%d.sock", id, os.Getpid()))
}

func (self *CtrlListener) Addr() net.Addr {
	return self.listener.Addr()
}

func (self *CtrlListener) AddCallback(keyword string, f CtrlCallback) {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.callbacks[keyword] = append(self.callbacks[keyword], f)
}

func (self *CtrlListener) Start() {
	self.lock.Lock()
	defer self.lock.Unlock()

	if !self.running {
		self.running = true
		go self.run()
	}
}

func (self *CtrlListener) Close() error {
	ctrlMutex.Lock()
	delete(ctrlListeners, self.listener.Addr().String())
	ctrlMutex.Unlock()
	return self.listener.Close()
}

func (self *CtrlListener) run() {
	logrus.Infof("[%s] started", self.listener.Addr())
	defer logrus.Infof("[%s] exited", self.listener.Addr())

	for {
		conn, err := self.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logrus.Errorf("error accepting ctrl connection (%v)", err)
			continue
		}
		go self.handle(conn)
	}
}

func (self *CtrlListener) handle(conn net.Conn) {
	logrus.Debugf("new connection for [%s]", conn.LocalAddr())
	defer logrus.Debugf("ended connection for [%s]", conn.LocalAddr())
	defer func() { _ = conn.Close() }()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		tokens := strings.Fields(line)
		if len(tokens) < 1 {
			self.respond(conn, "syntax error?\n")
			continue
		}

		self.lock.Lock()
		fs, found := self.callbacks[tokens[0]]
		self.lock.Unlock()
		if !found {
			logrus.Errorf("no callback for [%s]", line)
			self.respond(conn, "syntax error?\n")
			continue
		}

		var fErr error
		for _, f := range fs {
			if _, fErr = f(line, conn); fErr != nil {
				break
			}
		}
		if fErr == nil {
			self.respond(conn, "ok\n")
		} else {
			logrus.Errorf("error executing callback (%v)", fErr)
			self.respond(conn, fmt.Sprintf("error (%s)\n", fErr))
		}
	}
}

func (self *CtrlListener) respond(conn net.Conn, msg string) {
	if _, err := conn.Write([]byte(msg)); err != nil {
		logrus.Errorf("error responding (%v)", err)
	}
}
