// A small wrapper around net/http's server with clean startup and shutdown.

package httpsrv

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"slurmacct/common"
)

const serverShutdownTimeoutSec = 10

type Server struct {
	verbose bool
	port    int
	handler http.Handler
	failed  func(error)
	stop    chan bool
	server  *http.Server
	tlsKey  string
	tlsCert string
}

// New creates a server that will listen on `port` and serve `handler`.  It will call `failed` if
// the server returns a failure code.  The server is not started by this.

func New(verbose bool, port int, handler http.Handler, failed func(error)) *Server {
	return &Server{
		verbose: verbose,
		port:    port,
		handler: handler,
		failed:  failed,
		stop:    make(chan bool),
	}
}

// NewTLS is like New, but with TLS.

func NewTLS(verbose bool, port int, handler http.Handler, tlsKey, tlsCert string, failed func(error)) *Server {
	s := New(verbose, port, handler, failed)
	s.tlsKey = tlsKey
	s.tlsCert = tlsCert
	return s
}

// Start the server.  This blocks the current goroutine until the server exits, so typical usage
// would be `go s.Start()`.  To force the server to shut down, call s.Stop().  When the server
// exits, it will call s.failed if there was an error.

func (s *Server) Start() {
	if s.verbose {
		common.Log.Infof("Listening on port %d", s.port)
	}
	var err error
	if s.tlsKey != "" {
		var hn string
		hn, err = os.Hostname()
		if err == nil {
			s.server = &http.Server{Addr: fmt.Sprintf("%s:%d", hn, s.port), Handler: s.handler}
			err = s.server.ListenAndServeTLS(s.tlsCert, s.tlsKey)
		}
	} else {
		s.server = &http.Server{Addr: fmt.Sprintf(":%d", s.port), Handler: s.handler}
		err = s.server.ListenAndServe()
	}
	if err != nil {
		if err != http.ErrServerClosed {
			common.Log.Errorf("%s", err.Error())
			common.Log.Errorf("SERVER NOT RUNNING")
			if s.failed != nil {
				s.failed(err)
			}
		} else {
			common.Log.Infof("%s", err.Error())
		}
	}
	s.stop <- true
}

// Stop causes the server to shut down and stop.

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeoutSec*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		common.Log.Warningf("%s", err.Error())
	}
	<-s.stop
}
