package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

func tinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Ollama", func() {
	var (
		server  *ghttp.Server
		scanner *Ollama
		proof   []byte
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var err error
		scanner, err = NewOllama(server.URL()+"/", "llava", testTypes)
		Expect(err).NotTo(HaveOccurred())
		proof = tinyPNG()
	})

	AfterEach(func() {
		scanner.Close()
		server.Close()
	})

	It("should send the proof and parse the answer", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest("POST", "/api/chat"),
			ghttp.VerifyContentType("application/json"),
			func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				Expect(err).NotTo(HaveOccurred())
				var req ollamaChatRequest
				Expect(json.Unmarshal(body, &req)).To(Succeed())
				Expect(req.Model).To(Equal("llava"))
				Expect(req.Format).To(Equal("json"))
				Expect(req.Messages).To(HaveLen(2))
				Expect(req.Messages[1].Images).To(Equal([]string{base64.StdEncoding.EncodeToString(proof)}))
			},
			ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
				Done: true,
				Message: ollamaMessage{
					Role:    "assistant",
					Content: `{"type": "Transports", "name": "Taxi G7", "date": "15/01/2024", "amount": 23.4}`,
				},
			}),
		))

		draft, err := scanner.ScanBill(context.Background(), proof, "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(draft.Name).To(Equal("Taxi G7"))
		Expect(draft.Date).To(Equal("2024-01-15"))
		Expect(draft.Type).To(Equal("Transports"))
	})

	It("returns the API error", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "model not found"))

		_, err := scanner.ScanBill(context.Background(), proof, "image/png")
		Expect(err).To(MatchError(ContainSubstring("status 404")))
	})

	It("rejects files that are not images", func() {
		_, err := scanner.ScanBill(context.Background(), []byte("plain text"), "text/plain")
		Expect(err).To(MatchError(ContainSubstring("converting image to PNG")))
		Expect(server.ReceivedRequests()).To(BeEmpty())
	})
})
