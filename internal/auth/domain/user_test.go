package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "alice", want: "alice"},
		{in: "  bob  ", want: "bob"},
		{in: "soc.analyst-01", want: "soc.analyst-01"},
		{in: "ａｌｉｃｅ", want: "alice"}, // fullwidth folds under NFKC
		{in: "Alice", want: "alice"},
		{in: "SOC.Analyst", want: "soc.analyst"},
		{in: "ＢＯＢ", want: "bob"},
		{in: "al", wantErr: true},
		{in: "", wantErr: true},
		{in: "alice smith", wantErr: true},
		{in: "alice@example", wantErr: true},
		{in: "ålice", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.NormalizeUsername(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidUsername)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := domain.ParseRole("")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, r)

	r, err = domain.ParseRole("admin")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, r)

	_, err = domain.ParseRole("root")
	require.Error(t, err)
}
