package api

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"time"

	"SetCodeGen/eip7702"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server exposes the builders over HTTP. Every request is signed with the
// key handed to NewServer.
type Server struct {
	router  *gin.Engine
	key     *ecdsa.PrivateKey
	address common.Address
	log     *logrus.Logger
}

func NewServer(key *ecdsa.PrivateKey, log *logrus.Logger) *Server {
	s := &Server{
		router:  gin.New(),
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		log:     log,
	}
	s.router.Use(gin.Recovery(), s.requestLogger(), cors())

	s.router.POST("/api/sign-authorization", s.signAuthorization)
	s.router.POST("/api/generate-tx", s.generateTransaction)
	s.router.POST("/api/decode-tx", s.decodeTransaction)
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "address": s.address.Hex()})
	})
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	s.log.WithFields(logrus.Fields{"addr": addr, "signer": s.address.Hex()}).Info("Starting set-code transaction API")
	return s.router.Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("Handled request")
	}
}

// Configure CORS
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// fail maps input and encoding errors to 400 and signing failures to 500.
func (s *Server) fail(c *gin.Context, what string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errBadRequest) || errors.Is(err, eip7702.ErrEncoding) {
		status = http.StatusBadRequest
	} else {
		s.log.WithError(err).Warnf("%s failed", what)
	}
	c.JSON(status, gin.H{"error": fmt.Sprintf("%s: %v", what, err)})
}

func (s *Server) signAuthorization(c *gin.Context) {
	var req AuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	unsigned, err := req.Unsigned()
	if err != nil {
		s.fail(c, "authorization", err)
		return
	}
	signed, err := eip7702.BuildAuthorization(unsigned, s.key)
	if err != nil {
		s.fail(c, "authorization", err)
		return
	}
	authority, err := signed.Authority()
	if err != nil {
		s.fail(c, "authorization", err)
		return
	}
	c.JSON(http.StatusOK, AuthorizationResponse{
		Authorization: &signed,
		Authority:     authority.Hex(),
	})
}

// Handler for generating transactions
func (s *Server) generateTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := req.Build(c.Request.Context(), s.key)
	if err != nil {
		s.fail(c, "set-code transaction", err)
		return
	}
	resp, err := toTransactionResponse(st)
	if err != nil {
		s.fail(c, "set-code transaction", err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"hash":           resp.TransactionHash,
		"authorizations": len(req.Authorizations),
	}).Info("Signed set-code transaction")
	c.JSON(http.StatusOK, resp)
}

func (s *Server) decodeTransaction(c *gin.Context) {
	var req DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := eip7702.DecodeSignedTransactionHex(req.Raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("decode: %v", err)})
		return
	}
	data, err := ToTransactionData(st)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("decode: %v", err)})
		return
	}
	c.JSON(http.StatusOK, data)
}
