package domain

import "testing"

func TestLocationQueryStringKeepsPrecision(t *testing.T) {
	cases := []struct {
		loc  Location
		want string
	}{
		{Location{Lat: 28.6139, Lng: 77.209}, "28.6139,77.209"},
		{Location{Lat: -33.868820123456, Lng: 151.209295987654}, "-33.868820123456,151.209295987654"},
		{Location{Lat: 0, Lng: -0.5}, "0,-0.5"},
	}

	for _, c := range cases {
		if got := c.loc.QueryString(); got != c.want {
			t.Fatalf("QueryString() = %q, want %q", got, c.want)
		}
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(DispatchResult{NoContacts: true}); got != AlertStatusNoContacts {
		t.Fatalf("StatusOf(no contacts) = %q", got)
	}
	if got := StatusOf(DispatchResult{OverallSuccess: true}); got != AlertStatusSent {
		t.Fatalf("StatusOf(success) = %q", got)
	}
	if got := StatusOf(DispatchResult{}); got != AlertStatusFailed {
		t.Fatalf("StatusOf(failure) = %q", got)
	}
}
