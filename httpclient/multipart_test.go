package httpclient

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// part is a decoded form part. Data is read before the next part, which
// consumes the previous one.
type part struct {
	*multipart.Part
	Data string
}

func readParts(t *testing.T, body []byte, contentType string) []part {
	t.Helper()
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil || mt != "multipart/form-data" {
		t.Fatalf("unexpected content type %q (%v)", contentType, err)
	}
	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	var parts []part
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		data, err := io.ReadAll(p)
		if err != nil {
			t.Fatalf("read part %s: %v", p.FormName(), err)
		}
		parts = append(parts, part{Part: p, Data: string(data)})
	}
}

func TestMultipartBody_Encode(t *testing.T) {
	mp := &MultipartBody{
		Fields: map[string]string{"z": "last", "a": "first"},
		Files: []FileField{
			{FieldName: "audio", FileName: `take "1".wav`, ContentType: "audio/wav", Data: []byte("RIFF")},
			{FieldName: "notes", FileName: "notes.txt", Reader: strings.NewReader("hello")},
		},
	}
	body, ct, err := mp.encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parts := readParts(t, body, ct)
	if len(parts) != 4 {
		t.Fatalf("expected 4 parts, got %d", len(parts))
	}
	if parts[0].FormName() != "a" || parts[1].FormName() != "z" {
		t.Errorf("fields must be sorted, got %s,%s", parts[0].FormName(), parts[1].FormName())
	}
	if parts[0].Data != "first" || parts[2].Data != "RIFF" {
		t.Errorf("unexpected part data %q %q", parts[0].Data, parts[2].Data)
	}
	if parts[2].FileName() != `take "1".wav` || parts[2].Header.Get("Content-Type") != "audio/wav" {
		t.Errorf("unexpected file part %q %q", parts[2].FileName(), parts[2].Header.Get("Content-Type"))
	}
	if parts[3].Header.Get("Content-Type") != "application/octet-stream" {
		t.Errorf("expected default content type, got %q", parts[3].Header.Get("Content-Type"))
	}
	if parts[3].Data != "hello" {
		t.Errorf("unexpected reader content %q", parts[3].Data)
	}
}

func TestAdapter_MultipartUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.FormValue("language") != "en" {
			t.Errorf("unexpected field %q", r.FormValue("language"))
		}
		f, h, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if h.Filename != "a.bin" || string(data) != "payload" {
			t.Errorf("unexpected file %s %q", h.Filename, data)
		}
	}))
	defer srv.Close()

	a := newTestAdapter(t, Config{})
	_, err := a.Post(context.Background(), srv.URL, &MultipartBody{
		Fields: map[string]string{"language": "en"},
		Files:  []FileField{{FieldName: "file", FileName: "a.bin", Data: []byte("payload")}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
