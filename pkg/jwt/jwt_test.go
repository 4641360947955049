package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_IdaYVuelta(t *testing.T) {
	token, err := Generate("secreto", "traslados-api", Identity{UserID: "u1", UserName: "Ana", StoreID: "s1", Role: "bodeguero"}, 5)
	require.NoError(t, err)

	claims, err := Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Ana", claims.UserName)
	assert.Equal(t, "s1", claims.StoreID)
	assert.Equal(t, "bodeguero", claims.Role)
	assert.Equal(t, "traslados-api", claims.Issuer)
}

func TestParse_Rechazos(t *testing.T) {
	token, err := Generate("secreto", "x", Identity{UserID: "u1"}, 5)
	require.NoError(t, err)

	// Caso 1: firma con otro secreto
	_, err = Parse("otro", token)
	assert.Error(t, err)

	// Caso 2: token vencido
	expired, err := Generate("secreto", "x", Identity{UserID: "u1"}, -1)
	require.NoError(t, err)
	_, err = Parse("secreto", expired)
	assert.Error(t, err)

	// Caso 3: sin user_id
	anon, err := Generate("secreto", "x", Identity{}, 5)
	require.NoError(t, err)
	_, err = Parse("secreto", anon)
	assert.Error(t, err)

	// Caso 4: secreto vacío
	_, err = Generate("", "x", Identity{UserID: "u1"}, 5)
	assert.Error(t, err)
}
