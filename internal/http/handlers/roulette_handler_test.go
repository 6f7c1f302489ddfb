package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/recipe-roulette/internal/roulette"
)

// seedRoulette registers exactly one candidate per stage so spins are
// deterministic.
func seedRoulette(t *testing.T, e *testEnv) {
	t.Helper()
	for _, body := range []string{
		dishJSON("ご飯", "Japan", "Asia", "main_food"),
		dishJSON("唐揚げ", "Japan", "Asia", "main_dish"),
		dishJSON("Tiramisu", "Italy", "Europe", "dessert"),
	} {
		if w := e.do(http.MethodPost, "/dishes", "ok:seed", body); w.Code != http.StatusCreated {
			t.Fatalf("seed status=%d body=%s", w.Code, w.Body.String())
		}
	}
}

func TestRoulette_FullRunThenReset(t *testing.T) {
	e := newTestEnv(t)
	seedRoulette(t, e)

	w := e.do(http.MethodPost, "/roulette/sessions", "", `{"region":"Asia"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("start status=%d body=%s", w.Code, w.Body.String())
	}
	snap := decode[roulette.Snapshot](t, w)
	if snap.ID == "" || snap.Stage != roulette.StageCountry || snap.Region != "Asia" {
		t.Fatalf("new session = %+v", snap)
	}
	spinPath := "/roulette/sessions/" + snap.ID + "/spin"

	want := []struct {
		stage roulette.Stage
		value string
	}{
		{roulette.StageCountry, "Japan"},
		{roulette.StageStapleFood, "ご飯"},
		{roulette.StageMainDish, "唐揚げ"},
	}
	for _, step := range want {
		w = e.do(http.MethodPost, spinPath, "", "")
		if w.Code != http.StatusOK {
			t.Fatalf("spin %s status=%d body=%s", step.stage, w.Code, w.Body.String())
		}
		res := decode[roulette.SpinResult](t, w)
		if res.Stage != step.stage || res.Value != step.value || len(res.Frames) != 3 {
			t.Fatalf("spin %s = %+v", step.stage, res)
		}
	}

	w = e.do(http.MethodGet, "/roulette/sessions/"+snap.ID, "", "")
	got := decode[roulette.Snapshot](t, w)
	if got.Stage != roulette.StageComplete || !got.Selection.Complete() || got.Spins != 3 {
		t.Fatalf("complete session = %+v", got)
	}

	w = e.do(http.MethodPost, spinPath, "", "")
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = e.do(http.MethodPost, "/roulette/sessions/"+snap.ID+"/reset", "", "")
	got = decode[roulette.Snapshot](t, w)
	if w.Code != http.StatusOK || got.Stage != roulette.StageCountry || got.Selection.Country != "" {
		t.Fatalf("reset status=%d session=%+v", w.Code, got)
	}
	if len(got.History[roulette.StageCountry]) != 1 {
		t.Fatalf("history lost on reset: %+v", got.History)
	}
}

func TestRoulette_StartWithoutBodyAndBadRegion(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/roulette/sessions", "", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("empty body status=%d body=%s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodPost, "/roulette/sessions", "", `{"region":"Atlantis"}`)
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = e.do(http.MethodPost, "/roulette/sessions", "", `{"region":`)
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestRoulette_EmptyPoolAndUnknownSession(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/roulette/sessions", "", "")
	id := decode[roulette.Snapshot](t, w).ID

	// No dishes at all: the country stage has nothing to draw.
	w = e.do(http.MethodPost, "/roulette/sessions/"+id+"/spin", "", "")
	expectError(t, w, http.StatusUnprocessableEntity, "empty_result")

	w = e.do(http.MethodGet, "/roulette/sessions/missing", "", "")
	expectError(t, w, http.StatusNotFound, "not_found")
	w = e.do(http.MethodPost, "/roulette/sessions/missing/spin", "", "")
	expectError(t, w, http.StatusNotFound, "not_found")
}

func TestListCountries(t *testing.T) {
	e := newTestEnv(t)
	seedRoulette(t, e)

	w := e.do(http.MethodGet, "/roulette/countries", "", "")
	if got := decode[CountriesResponse](t, w); len(got.Countries) != 2 || got.Countries[0] != "Italy" {
		t.Fatalf("all countries = %+v", got)
	}
	w = e.do(http.MethodGet, "/roulette/countries?region=Asia", "", "")
	if got := decode[CountriesResponse](t, w); len(got.Countries) != 1 || got.Countries[0] != "Japan" || got.Region != "Asia" {
		t.Fatalf("asian countries = %+v", got)
	}
	w = e.do(http.MethodGet, "/roulette/countries?region=Atlantis", "", "")
	expectError(t, w, http.StatusBadRequest, "bad_request")
}
