package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"velora_back_end/internal/models"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const productIndex = "products"

// Indexer pousse les produits dans Elasticsearch et sert la recherche
// plein texte. Le client peut être nil (Elastic optionnel) : l'indexation
// devient un no-op et la recherche renvoie une erreur explicite.
type Indexer struct {
	client *elasticsearch.Client
}

func NewIndexer(client *elasticsearch.Client) *Indexer {
	return &Indexer{client: client}
}

func (idx *Indexer) Enabled() bool {
	return idx.client != nil
}

// IndexProduct indexe (ou réindexe) un produit. Best-effort : une erreur
// Elastic est loguée mais ne bloque jamais l'écriture catalogue.
func (idx *Indexer) IndexProduct(ctx context.Context, p *models.Product) {
	if idx.client == nil {
		return
	}

	data, _ := json.Marshal(p)
	req := esapi.IndexRequest{
		Index:      productIndex,
		DocumentID: p.ID.Hex(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, idx.client)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", p.Name, res.String())
	}
}

// DeleteProduct retire un produit de l'index après suppression catalogue
func (idx *Indexer) DeleteProduct(ctx context.Context, productID string) {
	if idx.client == nil {
		return
	}

	req := esapi.DeleteRequest{
		Index:      productIndex,
		DocumentID: productID,
		Refresh:    "true",
	}
	res, err := req.Do(ctx, idx.client)
	if err != nil {
		log.Println("❌ Erreur suppression Elastic:", err)
		return
	}
	res.Body.Close()
}

// SearchProducts cherche par nom, description ou marque (multi_match)
func (idx *Indexer) SearchProducts(ctx context.Context, query string) ([]map[string]interface{}, error) {
	if idx.client == nil {
		return nil, errors.New("client Elasticsearch non initialisé")
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name", "description", "brand"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %v", err)
	}

	req := esapi.SearchRequest{
		Index: []string{productIndex},
		Body:  &buf,
	}
	res, err := req.Do(ctx, idx.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		json.NewDecoder(res.Body).Decode(&e)
		log.Printf("❌ Elasticsearch erreur: %+v", e)
		return nil, errors.New("index non trouvé ou vide")
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %v", err)
	}

	hitsData, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("réponse Elastic invalide (pas de hits)")
	}
	hitsArray, ok := hitsData["hits"].([]interface{})
	if !ok {
		return []map[string]interface{}{}, nil
	}

	results := make([]map[string]interface{}, 0, len(hitsArray))
	for _, hit := range hitsArray {
		hitMap, _ := hit.(map[string]interface{})
		if source, ok := hitMap["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}
	return results, nil
}
