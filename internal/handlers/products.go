package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/catalog"
	"velora_back_end/internal/models"
	"velora_back_end/internal/repository"
	"velora_back_end/internal/search"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultPageSize = 12

// ProductHandler expose le catalogue : lecture publique, CRUD admin,
// recherche plein texte et avis. Le cache Redis et l'index Elastic sont
// tenus à jour après chaque écriture.
type ProductHandler struct {
	products *repository.ProductRepository
	reviews  *catalog.ReviewService
	cache    *cache.ProductCache
	indexer  *search.Indexer
}

func NewProductHandler(products *repository.ProductRepository, reviews *catalog.ReviewService, productCache *cache.ProductCache, indexer *search.Indexer) *ProductHandler {
	return &ProductHandler{
		products: products,
		reviews:  reviews,
		cache:    productCache,
		indexer:  indexer,
	}
}

// ================== LECTURE PUBLIQUE ==================

func (h *ProductHandler) List(c *gin.Context) {
	keyword := c.Query("keyword")
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if page < 1 {
		page = 1
	}

	products, total, err := h.products.Find(c.Request.Context(), keyword, page, defaultPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	pages := total / defaultPageSize
	if total%defaultPageSize != 0 {
		pages++
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"page":     page,
		"pages":    pages,
		"total":    total,
	})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	if cached := h.cache.GetProduct(c.Request.Context(), id.Hex()); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	product, err := h.products.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	h.cache.SetProduct(c.Request.Context(), product)
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Top(c *gin.Context) {
	h.cachedList(c, "top", func() ([]models.Product, error) {
		return h.products.Top(c.Request.Context(), 3)
	})
}

func (h *ProductHandler) Newest(c *gin.Context) {
	h.cachedList(c, "new", func() ([]models.Product, error) {
		return h.products.Newest(c.Request.Context(), 8)
	})
}

func (h *ProductHandler) Random(c *gin.Context) {
	count, _ := strconv.ParseInt(c.DefaultQuery("count", "4"), 10, 64)
	if count < 1 || count > 20 {
		count = 4
	}

	products, err := h.products.Random(c.Request.Context(), count)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Filter(c *gin.Context) {
	var categories []string
	if raw := c.Query("categories"); raw != "" {
		categories = strings.Split(raw, ",")
	}
	priceMin, _ := strconv.ParseFloat(c.DefaultQuery("priceMin", "0"), 64)
	priceMax, _ := strconv.ParseFloat(c.DefaultQuery("priceMax", "0"), 64)

	products, err := h.products.Filter(c.Request.Context(), categories, priceMin, priceMax)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

// Search interroge Elasticsearch (multi_match nom/description/marque)
func (h *ProductHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}

	results, err := h.indexer.SearchProducts(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *ProductHandler) cachedList(c *gin.Context, key string, fetch func() ([]models.Product, error)) {
	if cached := h.cache.GetList(c.Request.Context(), key); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	products, err := fetch()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.cache.SetList(c.Request.Context(), key, products)
	c.JSON(http.StatusOK, products)
}

// ================== CRUD ADMIN ==================

type productInput struct {
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	Price        float64 `json:"price" binding:"required,gt=0"`
	Quantity     int     `json:"quantity"`
	CountInStock int     `json:"countInStock" binding:"gte=0"`
	Image        string  `json:"image"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.Create(c.Request.Context(), &models.Product{
		Name:         input.Name,
		Description:  input.Description,
		Brand:        input.Brand,
		Category:     input.Category,
		Price:        input.Price,
		Quantity:     input.Quantity,
		CountInStock: input.CountInStock,
		Image:        input.Image,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.cache.InvalidateLists(c.Request.Context())
	h.indexer.IndexProduct(c.Request.Context(), product)
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.Update(c.Request.Context(), &models.Product{
		ID:           id,
		Name:         input.Name,
		Description:  input.Description,
		Brand:        input.Brand,
		Category:     input.Category,
		Price:        input.Price,
		Quantity:     input.Quantity,
		CountInStock: input.CountInStock,
		Image:        input.Image,
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	h.cache.Invalidate(c.Request.Context(), id.Hex())
	h.indexer.IndexProduct(c.Request.Context(), product)
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.cache.Invalidate(c.Request.Context(), id.Hex())
	h.indexer.DeleteProduct(c.Request.Context(), id.Hex())
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé"})
}

// ================== AVIS ==================

func (h *ProductHandler) AddReview(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}
	userID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiant utilisateur invalide"})
		return
	}

	var input struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userName, _ := c.Get("username")
	name, _ := userName.(string)

	err = h.reviews.AddReview(c.Request.Context(), productID, userID, name, input.Rating, input.Comment)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": "La note doit être comprise entre 1 et 5"})
		case errors.Is(err, repository.ErrDuplicateReview):
			c.JSON(http.StatusConflict, gin.H{"error": "Vous avez déjà laissé un avis sur ce produit"})
		case errors.Is(err, repository.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.cache.Invalidate(c.Request.Context(), productID.Hex())
	c.JSON(http.StatusCreated, gin.H{"message": "Avis ajouté"})
}
