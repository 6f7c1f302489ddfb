package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/recipe-roulette/internal/domain"
)

func TestCreateDish_CreatedThenReplayed(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/dishes", "ok:u1", karaage, "Idempotency-Key", "create-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	first := decode[domain.Dish](t, w)
	if first.ID == "" || first.AuthorID != "u1" || first.NameEn != "Karaage" {
		t.Fatalf("created = %+v", first)
	}

	w = e.do(http.MethodPost, "/dishes", "ok:u1", karaage, "Idempotency-Key", "create-1")
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay status=%d replayed=%q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}
	if again := decode[domain.Dish](t, w); again.ID != first.ID {
		t.Fatalf("replay returned %s, want %s", again.ID, first.ID)
	}

	// Same dish without the key is a duplicate.
	w = e.do(http.MethodPost, "/dishes", "ok:u1", karaage)
	expectError(t, w, http.StatusConflict, "conflict")
}

func TestCreateDish_RequiresToken(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/dishes", "", karaage)
	expectError(t, w, http.StatusUnauthorized, "unauthorized")

	w = e.do(http.MethodPost, "/dishes", "bogus", karaage)
	expectError(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestCreateDish_ValidationMessagesVerbatim(t *testing.T) {
	e := newTestEnv(t)

	cases := []struct {
		body string
		msg  string
	}{
		{`{"country":"Japan","region":"Asia","category":"main_dish"}`, "name is required"},
		{`{"name":"Ramen","region":"Asia","category":"main_dish"}`, "country is required"},
		{dishJSON("Ramen", "Japan", "Atlantis", "main_dish"), "invalid region"},
		{dishJSON("Ramen", "Japan", "Asia", "snack"), "invalid category"},
	}
	for _, tc := range cases {
		w := e.do(http.MethodPost, "/dishes", "ok:u1", tc.body)
		er := expectError(t, w, http.StatusBadRequest, "bad_request")
		if er.Message != tc.msg {
			t.Fatalf("body %s: message=%q want %q", tc.body, er.Message, tc.msg)
		}
	}

	w := e.do(http.MethodPost, "/dishes", "ok:u1", `{"name":`)
	if er := expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest); er.Message != msgInvalidJSON {
		t.Fatalf("malformed json message=%q", er.Message)
	}
}

func TestListDishes_ETagAndValidation(t *testing.T) {
	e := newTestEnv(t)
	if w := e.do(http.MethodPost, "/dishes", "ok:u1", karaage); w.Code != http.StatusCreated {
		t.Fatalf("seed status=%d", w.Code)
	}

	w := e.do(http.MethodGet, "/dishes?category=main_dish", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	list := decode[ListDishesResponse](t, w)
	if list.Count != 1 || list.Dishes[0].Name != "唐揚げ" {
		t.Fatalf("list = %+v", list)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	w = e.do(http.MethodGet, "/dishes?category=main_dish", "", "", "If-None-Match", etag)
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional status=%d", w.Code)
	}

	// A new dish changes the collection fingerprint.
	if w := e.do(http.MethodPost, "/dishes", "ok:u1", dishJSON("Tonkatsu", "Japan", "Asia", "main_dish")); w.Code != http.StatusCreated {
		t.Fatalf("second seed status=%d", w.Code)
	}
	w = e.do(http.MethodGet, "/dishes?category=main_dish", "", "", "If-None-Match", etag)
	if w.Code != http.StatusOK || decode[ListDishesResponse](t, w).Count != 2 {
		t.Fatalf("after insert status=%d body=%s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodGet, "/dishes?category=snack", "", "")
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = e.do(http.MethodGet, "/dishes?sort=oldest", "", "")
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = e.do(http.MethodGet, "/dishes?limit=abc", "", "")
	if er := expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest); er.Message != msgInvalidLimit {
		t.Fatalf("limit message=%q", er.Message)
	}
}

func TestGetDish_BadIDAndMissing(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/dishes/not-a-uuid", "", "")
	if er := expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest); er.Message != msgInvalidDish {
		t.Fatalf("message=%q", er.Message)
	}

	w = e.do(http.MethodGet, "/dishes/6f1c2a57-1111-4c2b-9a0e-5b7f1c2d3e4f", "", "")
	expectError(t, w, http.StatusNotFound, "not_found")
}

func TestUpdateAndDelete_AuthorOnly(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/dishes", "ok:author", karaage)
	if w.Code != http.StatusCreated {
		t.Fatalf("seed status=%d", w.Code)
	}
	id := decode[domain.Dish](t, w).ID
	path := "/dishes/" + id

	w = e.do(http.MethodPut, path, "ok:someone", `{"description":"crispy"}`)
	expectError(t, w, http.StatusForbidden, "forbidden")

	w = e.do(http.MethodPut, path, "ok:author", `{"description":"crispy"}`)
	if w.Code != http.StatusOK || decode[domain.Dish](t, w).Description != "crispy" {
		t.Fatalf("update status=%d body=%s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodPut, path, "ok:author", `{"category":"snack"}`)
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = e.do(http.MethodDelete, path, "ok:someone", "")
	expectError(t, w, http.StatusForbidden, "forbidden")

	w = e.do(http.MethodDelete, path, "ok:author", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", w.Code)
	}

	w = e.do(http.MethodGet, path, "", "")
	expectError(t, w, http.StatusNotFound, "not_found")
}

func TestSearchAndContributions(t *testing.T) {
	e := newTestEnv(t)
	for _, body := range []string{
		dishJSON("Shoyu Ramen", "Japan", "Asia", "main_dish"),
		dishJSON("Pizza", "Italy", "Europe", "main_dish"),
	} {
		if w := e.do(http.MethodPost, "/dishes", "ok:u1", body); w.Code != http.StatusCreated {
			t.Fatalf("seed status=%d body=%s", w.Code, w.Body.String())
		}
	}

	w := e.do(http.MethodGet, "/search/dishes", "", "")
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = e.do(http.MethodGet, "/search/dishes?q=RAMEN", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("search status=%d", w.Code)
	}
	if got := decode[ListDishesResponse](t, w); got.Count != 1 || got.Dishes[0].Name != "Shoyu Ramen" {
		t.Fatalf("search = %+v", got)
	}

	w = e.do(http.MethodGet, "/users/u1/dishes", "", "")
	if got := decode[ListDishesResponse](t, w); w.Code != http.StatusOK || got.Count != 2 {
		t.Fatalf("contributions status=%d body=%s", w.Code, w.Body.String())
	}
	w = e.do(http.MethodGet, "/users/nobody/dishes", "", "")
	if got := decode[ListDishesResponse](t, w); got.Count != 0 || got.Dishes == nil {
		t.Fatalf("empty contributions = %+v", got)
	}
}
