package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestUploadReturnsDocumentMetadata(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "Ada", "ada@example.com")

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	part, err := writer.CreateFormFile("pdf", "thesis.pdf")
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.7 payload")); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	writer.Close()

	request := httptest.NewRequest(http.MethodPost, "/pdfs/upload", &buffer)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	pdf, ok := payload["pdf"].(map[string]any)
	if !ok {
		t.Fatalf("expected pdf object in response, got %v", payload)
	}
	if pdf["filename"] == "" {
		t.Fatalf("expected a stored filename, got %v", pdf)
	}
	if pdf["pageCount"] != float64(3) {
		t.Fatalf("expected page count 3, got %v", pdf["pageCount"])
	}
	if pdf["uuid"] == "" {
		t.Fatalf("expected an external uuid, got %v", pdf)
	}
}

func TestUploadWithoutFileFieldIsRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "Ada", "ada@example.com")

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	writer.WriteField("note", "no file here")
	writer.Close()

	request := httptest.NewRequest(http.MethodPost, "/pdfs/upload", &buffer)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Please upload a PDF file") {
		t.Fatalf("unexpected response body: %s", recorder.Body.String())
	}
}

func TestUploadRejectsNonPDFPayload(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "Ada", "ada@example.com")

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	part, err := writer.CreateFormFile("pdf", "notes.txt")
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	part.Write([]byte("plain text, not a pdf"))
	writer.Close()

	request := httptest.NewRequest(http.MethodPost, "/pdfs/upload", &buffer)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-PDF payload, got %d", recorder.Code)
	}
}

func TestListDocumentsReportsCount(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "Ada", "ada@example.com")
	env.uploadPDF(t, token, "first.pdf")
	env.uploadPDF(t, token, "second.pdf")

	recorder := env.doJSON(t, http.MethodGet, "/pdfs/my-pdfs", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["count"] != float64(2) {
		t.Fatalf("expected count 2, got %v", payload["count"])
	}
}

func TestGetDocumentHidesForeignDocuments(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.registerUser(t, "Ada", "ada@example.com")
	otherToken := env.registerUser(t, "Bob", "bob@example.com")
	documentUUID := env.uploadPDF(t, ownerToken, "private.pdf")

	recorder := env.doJSON(t, http.MethodGet, "/pdfs/"+documentUUID, otherToken, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a foreign document, got %d", recorder.Code)
	}

	recorder = env.doJSON(t, http.MethodGet, "/pdfs/"+documentUUID, ownerToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for the owner, got %d", recorder.Code)
	}
}

func TestRenameDocumentUpdatesOriginalName(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "Ada", "ada@example.com")
	documentUUID := env.uploadPDF(t, token, "draft.pdf")

	recorder := env.doJSON(t, http.MethodPut, "/pdfs/"+documentUUID+"/rename", token, gin.H{
		"originalName": "final.pdf",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	pdf := payload["pdf"].(map[string]any)
	if pdf["originalName"] != "final.pdf" {
		t.Fatalf("expected renamed document, got %v", pdf["originalName"])
	}
}

func TestDeleteDocumentRemovesItFromListing(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "Ada", "ada@example.com")
	documentUUID := env.uploadPDF(t, token, "ephemeral.pdf")

	recorder := env.doJSON(t, http.MethodDelete, "/pdfs/"+documentUUID, token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = env.doJSON(t, http.MethodGet, "/pdfs/"+documentUUID, token, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after deletion, got %d", recorder.Code)
	}
}
