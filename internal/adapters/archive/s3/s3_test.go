package s3

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func fixed(a *Archive) *Archive {
	a.now = func() time.Time { return time.Date(2025, 3, 4, 23, 0, 0, 0, time.UTC) }
	a.newID = func() uuid.UUID { return uuid.MustParse("00000000-0000-0000-0000-000000000001") }
	return a
}

func TestPut_KeyAndBody(t *testing.T) {
	t.Parallel()

	f := &fakePutter{}
	a := fixed(newArchive(f, Config{Bucket: "briefs", Prefix: "oracle"}))
	key, err := a.Put(context.Background(), "m-7", []byte("## Summary\nok"), map[string]string{"actor": "u-1"})
	if err != nil {
		t.Fatal(err)
	}
	want := "oracle/briefings/m-7/2025/03/04/00000000-0000-0000-0000-000000000001.md"
	if key != want {
		t.Fatalf("key = %q, want %q", key, want)
	}
	if aws.ToString(f.in.Bucket) != "briefs" || aws.ToString(f.in.Key) != want {
		t.Fatalf("input = %+v", f.in)
	}
	if string(f.body) != "## Summary\nok" || f.in.Metadata["actor"] != "u-1" {
		t.Fatalf("body %q meta %v", f.body, f.in.Metadata)
	}
}

func TestPut_ErrorWrapped(t *testing.T) {
	t.Parallel()

	cause := errors.New("denied")
	a := fixed(newArchive(&fakePutter{err: cause}, Config{Bucket: "b"}))
	if _, err := a.Put(context.Background(), "m", nil, nil); !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{Region: "us-east-1"}); err == nil {
		t.Fatal("want error")
	}
}
