package audit

import "testing"

func TestListFilterNormalize(t *testing.T) {
	cases := []struct {
		in        ListFilter
		page, lim int
	}{
		{ListFilter{}, 1, 50},
		{ListFilter{Page: 3, Limit: 20}, 3, 20},
		{ListFilter{Page: -1, Limit: 500}, 1, 50},
	}
	for _, tc := range cases {
		f := tc.in
		f.Normalize()
		if f.Page != tc.page || f.Limit != tc.lim {
			t.Errorf("Normalize(%+v) = page %d limit %d", tc.in, f.Page, f.Limit)
		}
	}
}
