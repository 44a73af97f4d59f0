package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOracleAddress(t *testing.T) {
	tests := []struct {
		dsn  string
		want OracleAddress
	}{
		{"db.example.com:1522/ORCLPDB1", OracleAddress{Host: "db.example.com", Port: 1522, Service: "ORCLPDB1"}},
		{"db.example.com/ORCLPDB1", OracleAddress{Host: "db.example.com", Port: DefaultOraclePort, Service: "ORCLPDB1"}},
		{"[::1]:1521/ORCL", OracleAddress{Host: "::1", Port: 1521, Service: "ORCL"}},
		{"[fe80::1]/ORCL", OracleAddress{Host: "fe80::1", Port: DefaultOraclePort, Service: "ORCL"}},
		{" 10.0.0.5:1521/ORCL ", OracleAddress{Host: "10.0.0.5", Port: 1521, Service: "ORCL"}},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, err := ParseOracleAddress(tt.dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOracleAddressErrors(t *testing.T) {
	for _, dsn := range []string{"ORCLPDB1", "db.example.com", "/ORCL", "db:/ORCL", "db:port/ORCL", "db:70000/ORCL", ":1521/ORCL"} {
		t.Run(dsn, func(t *testing.T) {
			_, err := ParseOracleAddress(dsn)
			assert.Error(t, err)
		})
	}
}

func TestCheckOracleDSN(t *testing.T) {
	assert.NoError(t, checkOracleDSN("oracle://db:1521/ORCL"))
	assert.NoError(t, checkOracleDSN("(DESCRIPTION=(ADDRESS=(PROTOCOL=TCP)(HOST=db)(PORT=1521))(CONNECT_DATA=(SERVICE_NAME=ORCL)))"))
	assert.NoError(t, checkOracleDSN("db:1521/ORCL"))
	assert.Error(t, checkOracleDSN("ORCLPDB1"))
}
