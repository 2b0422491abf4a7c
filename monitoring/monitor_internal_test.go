package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sampleSnapshot struct {
	Reads      uint64
	ReadMisses uint64
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		router http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		m = NewMonitor()
		router = m.Router()
	})

	It("should list published components in order", func() {
		m.Publish("L1", &sampleSnapshot{})
		m.Publish("L2", &sampleSnapshot{})
		m.Publish("L1", &sampleSnapshot{Reads: 1})

		rec := get("/api/list_components")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`["L1","L2"]`))
	})

	It("should keep the latest snapshot", func() {
		m.Publish("L1", &sampleSnapshot{Reads: 1})
		m.Publish("L1", &sampleSnapshot{Reads: 2, ReadMisses: 1})

		rec := get("/api/stats")

		Expect(rec.Body.String()).To(MatchJSON(
			`{"L1":{"Reads":2,"ReadMisses":1}}`))
	})

	It("should serialize a component", func() {
		m.Publish("L1", &sampleSnapshot{Reads: 3})

		rec := get("/api/component/L1")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should return 404 for unknown components", func() {
		rec := get("/api/component/L3")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		m.Publish("L1", &sampleSnapshot{})

		rec := get("/api/field/" + url.PathEscape("{bad"))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should report progress bars", func() {
		bar := m.CreateProgressBar("trace", 100)
		bar.IncrementFinished(10)
		bar.SetFinished(40)
		m.CreateProgressBar("other", 5)

		rec := get("/api/progress")

		var bars []ProgressBarStatus
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(2))
		Expect(bars[0].Name).To(Equal("trace"))
		Expect(bars[0].Total).To(Equal(uint64(100)))
		Expect(bars[0].Finished).To(Equal(uint64(40)))
		Expect(bars[0].ID).NotTo(Equal(bars[1].ID))
	})

	It("should remove completed progress bars", func() {
		bar := m.CreateProgressBar("trace", 100)

		m.CompleteProgressBar(bar)

		rec := get("/api/progress")
		Expect(rec.Body.String()).To(MatchJSON(`[]`))
	})

	It("should report resources", func() {
		rec := get("/api/resource")

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should ignore privileged port numbers", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})

	It("should serve over HTTP", func() {
		m.Publish("L1", &sampleSnapshot{Reads: 1})

		addr, err := m.StartServer()
		Expect(err).NotTo(HaveOccurred())
		defer m.StopServer(context.Background())

		rsp, err := http.Get(addr + "/api/list_components")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})
