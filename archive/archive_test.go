package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// stubS3 records PutObject calls.
type stubS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (s *stubS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	s.inputs = append(s.inputs, in)
	s.bodies = append(s.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Config_Validate(t *testing.T) {
	if err := (&S3Config{}).Validate(); err == nil {
		t.Error("expected error for missing bucket")
	}
	if err := (&S3Config{Bucket: "b"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		path   string
		bucket string
		prefix string
	}{
		{"mybucket", "mybucket", ""},
		{"mybucket/logs", "mybucket", "logs"},
		{"mybucket/logs/team-a", "mybucket", "logs/team-a"},
	}
	for _, tt := range tests {
		bucket, prefix := ParseS3Path(tt.path)
		if bucket != tt.bucket || prefix != tt.prefix {
			t.Errorf("ParseS3Path(%q) = %q,%q want %q,%q", tt.path, bucket, prefix, tt.bucket, tt.prefix)
		}
	}
}

func TestSegmentKey(t *testing.T) {
	u, err := newWithClient(S3Config{Bucket: "b", Prefix: "shimmer"}, &stubS3{})
	if err != nil {
		t.Fatal(err)
	}

	closedAt := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	key := u.SegmentKey("/var/log/coord.shimmer.1.log", closedAt)
	want := "shimmer/segments/day=2026-08-25/coord.shimmer.1.log"
	if key != want {
		t.Errorf("SegmentKey = %q, want %q", key, want)
	}
}

func TestSegmentKey_NoPrefix(t *testing.T) {
	u, err := newWithClient(S3Config{Bucket: "b"}, &stubS3{})
	if err != nil {
		t.Fatal(err)
	}

	key := u.SegmentKey("coord.log", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	if key != "segments/day=2026-01-02/coord.log" {
		t.Errorf("SegmentKey = %q", key)
	}
}

func TestUploadSegment(t *testing.T) {
	dir := t.TempDir()
	segment := filepath.Join(dir, "coord.shimmer.1.log")
	content := "ABPτ1800d03→[0.5,0.6,0.5,0.9,0.92]\n‡!0\n"
	if err := os.WriteFile(segment, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	stub := &stubS3{}
	u, err := newWithClient(S3Config{Bucket: "archive-bucket"}, stub)
	if err != nil {
		t.Fatal(err)
	}

	key, err := u.UploadSegment(t.Context(), segment)
	if err != nil {
		t.Fatalf("UploadSegment failed: %v", err)
	}

	if len(stub.inputs) != 1 {
		t.Fatalf("PutObject calls = %d, want 1", len(stub.inputs))
	}
	in := stub.inputs[0]
	if *in.Bucket != "archive-bucket" {
		t.Errorf("Bucket = %q", *in.Bucket)
	}
	if *in.Key != key || !strings.HasSuffix(key, "coord.shimmer.1.log") {
		t.Errorf("Key = %q, returned %q", *in.Key, key)
	}
	if *in.ContentLength != int64(len(content)) {
		t.Errorf("ContentLength = %d, want %d", *in.ContentLength, len(content))
	}
	if stub.bodies[0] != content {
		t.Errorf("uploaded body = %q", stub.bodies[0])
	}

	// Local segment is left in place.
	if _, err := os.Stat(segment); err != nil {
		t.Errorf("segment removed: %v", err)
	}
}

func TestUploadSegment_MissingFile(t *testing.T) {
	u, err := newWithClient(S3Config{Bucket: "b"}, &stubS3{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := u.UploadSegment(t.Context(), filepath.Join(t.TempDir(), "absent.log")); err == nil {
		t.Fatal("expected error for missing segment")
	}
}
