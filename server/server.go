package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xhad/pdfqa/internal/models"
	"github.com/xhad/pdfqa/internal/types"
)

// Ingester stores extracted document text and reports the upload id.
type Ingester interface {
	Ingest(ctx context.Context, name, text string) (models.IngestReport, error)
}

// Answerer answers a question about one upload.
type Answerer interface {
	Answer(ctx context.Context, question, uploadID string) (string, error)
}

type Config struct {
	Addr           string
	MaxUploadBytes int64
	Logger         *log.Logger
}

// Message is the websocket frame exchanged on /ws.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	FileID  string `json:"fileId,omitempty"`
}

type AskRequest struct {
	Question string `json:"question"`
	FileID   string `json:"fileId"`
}

type UploadResponse struct {
	Message string `json:"message"`
	models.IngestReport
}

type Server struct {
	config    Config
	extractor types.Extractor
	ingester  Ingester
	answerer  Answerer
	upgrader  websocket.Upgrader
	logger    *log.Logger
}

func New(config Config, extractor types.Extractor, ingester Ingester, answerer Answerer) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 32 << 20
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	return &Server{
		config:    config,
		extractor: extractor,
		ingester:  ingester,
		answerer:  answerer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: config.Logger,
	}
}

// Handler returns the HTTP routes of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/askQuestion", s.handleAskQuestion)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting server on %s", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Printf("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, "Upload error", err)
		return
	}

	text, err := s.extractor.Extract(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.fail(w, "Upload error", err)
		return
	}

	report, err := s.ingester.Ingest(r.Context(), header.Filename, text)
	if err != nil {
		s.fail(w, "Upload error", err)
		return
	}

	s.logger.Printf("Stored %s as %s (%d/%d chunks)", header.Filename, report.UploadID, report.Succeeded, report.Chunks)
	writeJSON(w, http.StatusOK, UploadResponse{
		Message:      "File processed and embeddings stored.",
		IngestReport: report,
	})
}

func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.Question, req.FileID)
	if err != nil {
		s.fail(w, "Answer error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Messages are answered one at a time, in order.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("Error reading message: %v", err)
			}
			return
		}

		// A frame that does not decode is answered, the connection stays open.
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Invalid message: %v", err))
			continue
		}

		if msg.Type != "ask" {
			s.sendMessage(conn, "error", fmt.Sprintf("Unknown message type %q", msg.Type))
			continue
		}

		answer, err := s.answerer.Answer(r.Context(), msg.Content, msg.FileID)
		if err != nil {
			s.logger.Printf("Answer error: %v", err)
			s.sendMessage(conn, "error", "Something went wrong: "+err.Error())
			continue
		}
		s.sendMessage(conn, "answer", answer)
	}
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType string, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Printf("Error sending message: %v", err)
	}
}

// fail maps caller mistakes to 400 and everything else to 500.
func (s *Server) fail(w http.ResponseWriter, prefix string, err error) {
	if types.IsClientError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Printf("%s: %v", prefix, err)
	writeError(w, http.StatusInternalServerError, "Something went wrong: "+err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
