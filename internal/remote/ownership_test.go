package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

func TestParseOwnedIDs(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []model.ID
	}{
		{"array of numbers", `{"success":true,"data":[3,7]}`, []model.ID{"3", "7"}},
		{"mixed numbers and strings", `{"success":true,"data":[3,"3"," 7 ","007"]}`, []model.ID{"3", "7"}},
		{"single object", `{"success":true,"data":{"id":12,"name":"Center"}}`, []model.ID{"12"}},
		{"objects with cinemaId", `{"success":true,"data":[{"cinemaId":"5"},{"cinemaId":6}]}`, []model.ID{"5", "6"}},
		{"bare number", `{"success":true,"data":4}`, []model.ID{"4"}},
		{"no data", `{"success":true}`, []model.ID{}},
		{"empty list", `{"success":true,"data":[]}`, []model.ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOwnedIDs([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOwnedIDsErrors(t *testing.T) {
	_, err := ParseOwnedIDs([]byte(`{"success":false,"message":"nope"}`))
	assert.ErrorIs(t, err, ErrDirectory)

	_, err = ParseOwnedIDs([]byte(`not json`))
	assert.ErrorIs(t, err, ErrDirectory)

	_, err = ParseOwnedIDs([]byte(`{"success":true,"data":[1.5]}`))
	assert.Error(t, err)

	_, err = ParseOwnedIDs([]byte(`{"success":true,"data":[true]}`))
	assert.ErrorIs(t, err, ErrDirectory)
}

func TestOwnershipClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/managers/42/cinemas", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[{"id":1},{"id":"2"}]}`))
	}))
	defer srv.Close()

	c := NewOwnershipClient(srv.URL + "/")
	ids, err := c.OwnedVenueIDs(context.Background(), model.Principal{UserID: "42", Role: model.RoleManager, Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, []model.ID{"1", "2"}, ids)
}

func TestOwnershipClientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewOwnershipClient(srv.URL).OwnedVenueIDs(context.Background(), model.Principal{UserID: "1"})
	assert.ErrorIs(t, err, ErrDirectory)
}
