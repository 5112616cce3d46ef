package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// Le pipeline de ventes journalières doit exclure les commandes impayées,
// grouper par date calendaire de paid_at et trier par date croissante.
func TestDailySalesPipeline_Shape(t *testing.T) {
	pipeline := dailySalesPipeline()
	require.Len(t, pipeline, 3)

	match := pipeline[0][0]
	require.Equal(t, "$match", match.Key)
	assert.Equal(t, bson.D{{Key: "is_paid", Value: true}}, match.Value)

	group := pipeline[1][0]
	require.Equal(t, "$group", group.Key)
	groupDoc := group.Value.(bson.D)
	dateExpr := groupDoc[0].Value.(bson.D)[0]
	require.Equal(t, "$dateToString", dateExpr.Key)
	assert.Equal(t, bson.D{
		{Key: "format", Value: "%Y-%m-%d"},
		{Key: "date", Value: "$paid_at"},
	}, dateExpr.Value)

	sort := pipeline[2][0]
	require.Equal(t, "$sort", sort.Key)
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, sort.Value)
}
