package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidwall/pretty"

	"github.com/kjk/board/backup"
	"github.com/kjk/board/board"
	"github.com/kjk/board/log"
	"github.com/kjk/board/server"
)

var (
	flgAddr    string
	flgData    string
	flgLogs    string
	flgWWW     string
	flgVerbose bool
	flgDump    bool
	flgBackup  bool
)

func main() {
	flag.StringVar(&flgAddr, "addr", ":8080", "HTTP address to listen on")
	flag.StringVar(&flgData, "data", "posts.txt", "path of the posts file")
	flag.StringVar(&flgLogs, "logs", "logs", "directory for log files")
	flag.StringVar(&flgWWW, "www", "www", "directory with static files")
	flag.BoolVar(&flgVerbose, "verbose", false, "verbose logging")
	flag.BoolVar(&flgDump, "dump", false, "print posts as JSON and exit")
	flag.BoolVar(&flgBackup, "backup", false, "upload a backup of the posts file and exit")
	flag.Parse()

	log.Verbose = flgVerbose
	b := board.New(board.NewFileStore(flgData))

	if flgDump {
		dumpPosts(b)
		return
	}
	if flgBackup {
		runBackup(flgData)
		return
	}

	log.Init(flgLogs)
	defer log.Close()
	runServer(b)
}

func dumpPosts(b *board.Board) {
	posts, err := b.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading '%s' failed: %s\n", flgData, err)
		os.Exit(1)
	}
	d, err := json.Marshal(posts)
	must(err)
	os.Stdout.Write(pretty.Pretty(d))
}

func runBackup(dataPath string) {
	config := backup.ConfigFromEnv()
	if config == nil {
		fmt.Printf("backup skipped: BOARD_SPACES_* env variables not set\n")
		return
	}
	remotePath, err := backup.Run(config, dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup of '%s' failed: %s\n", dataPath, err)
		os.Exit(1)
	}
	fmt.Printf("backed up '%s' as '%s'\n", dataPath, remotePath)
}

func runServer(b *board.Board) {
	wwwDir := flgWWW
	if !dirExists(wwwDir) {
		log.Logf("static dir '%s' doesn't exist, not serving /static/\n", wwwDir)
		wwwDir = ""
	}
	srv := server.New(b, wwwDir)
	httpSrv := &http.Server{
		Addr:         flgAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	chServerClosed := make(chan bool, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		// mute error caused by Shutdown()
		if err == http.ErrServerClosed {
			err = nil
		}
		must(err)
		chServerClosed <- true
	}()
	log.Logf("listening on %s, posts file: '%s'\n", flgAddr, flgData)
	log.Event("server-started", "addr", flgAddr)

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt /* SIGINT */, syscall.SIGTERM)
	<-c

	go func() {
		_ = httpSrv.Shutdown(context.Background())
	}()
	select {
	case <-chServerClosed:
		// do nothing
	case <-time.After(time.Second * 5):
		// timeout
	}
	log.Logf("stopped\n")
}

func dirExists(path string) bool {
	st, err := os.Lstat(path)
	return err == nil && st.IsDir()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
