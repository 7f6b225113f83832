package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSessionAuthenticated(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s := Session{IdentityToken: "tok", ExpiresAt: now.Add(time.Hour)}
	if !s.Authenticated(now) {
		t.Fatalf("expected authenticated before expiry")
	}
	if s.Authenticated(now.Add(time.Hour)) {
		t.Fatalf("expected expired exactly at ExpiresAt")
	}
	s.IdentityToken = ""
	if s.Authenticated(now) {
		t.Fatalf("expected unauthenticated without token")
	}
}

func TestCodeAcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A Code `json:"a"`
		B Code `json:"b"`
		C Code `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 2, "b": "3", "c": null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.A != "2" || payload.B != "3" || payload.C != "" {
		t.Fatalf("unexpected codes %+v", payload)
	}
}

func TestFeedbackAcceptsNumericTimestampAndTextRating(t *testing.T) {
	var fb Feedback
	if err := json.Unmarshal([]byte(`{"rating":"4.6","timestamp":1700000000000}`), &fb); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if fb.Rating != 4.6 || fb.Timestamp != "1700000000000" {
		t.Fatalf("unexpected feedback %+v", fb)
	}
	var pf ProviderFeedback
	if err := json.Unmarshal([]byte(`{"rating":3,"timestamp":"2026-10-17T08:30:00Z"}`), &pf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if pf.Rating != 3 || pf.Timestamp != "2026-10-17T08:30:00Z" {
		t.Fatalf("unexpected provider feedback %+v", pf)
	}
	if err := json.Unmarshal([]byte(`{"rating":"n/a"}`), &pf); err != nil || pf.Rating != 0 {
		t.Fatalf("expected unparseable rating to read as zero, got %v %v", pf.Rating, err)
	}
}

func TestURLSetFlattensKeyedObjects(t *testing.T) {
	var post Post
	raw := `{"Description":"d","Status":1,"ImageUrls":{"-b":"https://x/2.png","-a":"https://x/1.png"},"VideoUrls":null}`
	if err := json.Unmarshal([]byte(raw), &post); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(post.ImageURLs) != 2 || post.ImageURLs[0] != "https://x/1.png" {
		t.Fatalf("unexpected image urls %v", post.ImageURLs)
	}
	if post.VideoURLs == nil || len(post.VideoURLs) != 0 {
		t.Fatalf("expected empty video urls, got %v", post.VideoURLs)
	}
	if post.PostStatus() != PostAccepted {
		t.Fatalf("expected accepted status, got %s", post.PostStatus())
	}
}

func TestMediaKindOf(t *testing.T) {
	cases := map[string]MediaKind{
		"https://cdn.local/a/photo.JPG?alt=media": MediaImage,
		"https://cdn.local/clip.mp4":              MediaVideo,
		"https://cdn.local/doc.pdf":               MediaUnknown,
		"not a url":                               MediaUnknown,
		"":                                        MediaUnknown,
	}
	for input, expect := range cases {
		if got := MediaKindOf(input); got != expect {
			t.Fatalf("MediaKindOf(%q): expected %s, got %s", input, expect, got)
		}
	}
}

func TestEstateStatusAndCategory(t *testing.T) {
	e := Estate{Type: "1"}
	if e.Status() != EstatePending || e.Status().Terminal() {
		t.Fatalf("expected pending non-terminal estate")
	}
	seg, ok := e.Category().RouteSegment()
	if !ok || seg != "Hottel" {
		t.Fatalf("unexpected route segment %q", seg)
	}
	e.IsAccepted = "3"
	if !e.Status().Terminal() {
		t.Fatalf("expected rejected to be terminal")
	}
	if _, ok := ParseTier("4"); ok {
		t.Fatalf("expected unknown tier to be rejected")
	}
}
