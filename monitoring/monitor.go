// Package monitoring serves the state of a running simulation over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/sarchlab/cachesim/monitoring/web"
	"github.com/sarchlab/cachesim/sim/id"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"
)

// Monitor can turn a simulation into a server and allows external monitoring
// of the simulation.
//
// The simulation publishes snapshots of its components. The server only reads
// those snapshots, never the live components.
type Monitor struct {
	portNumber  int
	idGenerator id.IDGenerator

	componentsLock sync.Mutex
	componentNames []string
	components     map[string]any

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		idGenerator: id.NewIDGenerator(),
		components:  make(map[string]any),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		logrus.WithField("port", portNumber).
			Warn("port is not allowed for the monitoring server, using a random port instead")

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// Publish replaces the snapshot of a component. The snapshot must not be
// modified after it is published.
func (m *Monitor) Publish(name string, snapshot any) {
	m.componentsLock.Lock()
	defer m.componentsLock.Unlock()

	if _, ok := m.components[name]; !ok {
		m.componentNames = append(m.componentNames, name)
	}

	m.components[name] = snapshot
}

// Snapshot returns the last snapshot published for a component.
func (m *Monitor) Snapshot(name string) (any, bool) {
	m.componentsLock.Lock()
	defer m.componentsLock.Unlock()

	s, ok := m.components[name]

	return s, ok
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGenerator.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler that serves the monitoring API and pages.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	fServer := http.FileServer(web.GetAssets())
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/stats", m.listStats)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("starting monitoring server: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("monitoring server stopped")
		}
	}()

	return url, nil
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	m.componentsLock.Lock()
	names := make([]string, len(m.componentNames))
	copy(names, m.componentNames)
	m.componentsLock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	m.componentsLock.Lock()
	stats := make(map[string]any, len(m.components))
	for name, s := range m.components {
		stats[name] = s
	}
	m.componentsLock.Unlock()

	writeJSON(w, stats)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) any {
	component, ok := m.Snapshot(name)
	if !ok {
		http.Error(w, "Component not found", http.StatusNotFound)
		return nil
	}

	return component
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBarStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Status())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		logrus.Panic(err)
	}
}
