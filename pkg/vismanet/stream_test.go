package vismanet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	httpclient "github.com/martinberglund/Visma.Net/pkg/http"
)

// fakeRequester serves OpenStream from a fixed body and records whether it
// was closed.
type fakeRequester struct {
	body    string
	openErr error
	opened  int
	closed  bool
}

type trackingBody struct {
	io.Reader
	r *fakeRequester
}

func (b *trackingBody) Close() error {
	b.r.closed = true
	return nil
}

func (f *fakeRequester) Send(context.Context, string, string, map[string]string, interface{}) (*httpclient.Response, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRequester) OpenStream(context.Context, string, map[string]string) (io.ReadCloser, error) {
	f.opened++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &trackingBody{Reader: strings.NewReader(f.body), r: f}, nil
}

type item struct {
	ID int `json:"id"`
}

func collect(seq func(func(item, error) bool)) ([]int, error) {
	var ids []int
	for it, err := range seq {
		if err != nil {
			return ids, err
		}
		ids = append(ids, it.ID)
	}
	return ids, nil
}

func TestDecodeArray(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []int
		wantErr bool
	}{
		{name: "elements", body: `[{"id":1},{"id":2},{"id":3}]`, want: []int{1, 2, 3}},
		{name: "whitespace", body: "\n [ {\"id\": 1} ,\n {\"id\": 2} ] \n", want: []int{1, 2}},
		{name: "empty array", body: `[]`},
		{name: "empty body", body: ``},
		{name: "null", body: `null`},
		{name: "object", body: `{"id":1}`, wantErr: true},
		{name: "bad element", body: `[{"id":1},{"id":"x"}]`, want: []int{1}, wantErr: true},
		{name: "truncated", body: `[{"id":1},`, want: []int{1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collect(decodeArray[item](strings.NewReader(tt.body)))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStream_IsLazyAndCloses(t *testing.T) {
	f := &fakeRequester{body: `[{"id":1},{"id":2}]`}
	seq := Stream[item](context.Background(), f, "customer", nil)
	if f.opened != 0 {
		t.Fatal("request sent before iteration")
	}

	got, err := collect(seq)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if fmt.Sprint(got) != "[1 2]" {
		t.Fatalf("got %v", got)
	}
	if f.opened != 1 || !f.closed {
		t.Fatalf("opened=%d closed=%v", f.opened, f.closed)
	}
}

func TestStream_EarlyStopCloses(t *testing.T) {
	f := &fakeRequester{body: `[{"id":1},{"id":2},{"id":3}]`}

	for it, err := range Stream[item](context.Background(), f, "customer", nil) {
		if err != nil {
			t.Fatalf("Stream: %v", err)
		}
		if it.ID == 1 {
			break
		}
	}
	if !f.closed {
		t.Fatal("body not closed after early stop")
	}
}

func TestStream_OpenError(t *testing.T) {
	openErr := &APIError{StatusCode: http.StatusServiceUnavailable}
	f := &fakeRequester{openErr: openErr}

	n := 0
	for _, err := range Stream[item](context.Background(), f, "customer", nil) {
		n++
		if !errors.Is(err, openErr) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if n != 1 {
		t.Fatalf("expected exactly one yield, got %d", n)
	}
}

func TestStreamCustomers(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPrefix+"customer" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("status") != "Active" {
			t.Errorf("filter not applied: %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `[{"number":"10001","name":"Acme"},{"number":"10002","name":"Globex"}]`)
	}))

	var names []string
	for customer, err := range c.StreamCustomers(context.Background(), Filter{Status: "Active"}) {
		if err != nil {
			t.Fatalf("StreamCustomers: %v", err)
		}
		names = append(names, customer.Name)
	}
	if strings.Join(names, ",") != "Acme,Globex" {
		t.Fatalf("got %v", names)
	}
}

func TestStreamCustomers_ServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"ExceptionMessage": "database timeout"})
	}))

	var gotErr error
	for _, err := range c.StreamCustomers(context.Background(), Filter{}) {
		gotErr = err
	}
	apiErr, ok := AsAPIError(gotErr)
	if !ok || apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "database timeout" {
		t.Fatalf("unexpected error %v", gotErr)
	}
}
