package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"croprec/internal/models"
	"croprec/internal/predict"
)

func (s *Server) handlePredict(c *gin.Context) {
	p, err := s.predict(c)
	if err != nil {
		kind := predict.KindOf(err)
		if kind == predict.KindUnknown {
			kind = predict.KindInference
		}
		s.metrics.predictErrors.WithLabelValues(kind.String()).Inc()
		s.logger.Warn("prediction rejected",
			zap.String("request_id", requestIDFrom(c)),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": kind.String()})
		return
	}
	s.metrics.predictions.WithLabelValues(p.RecommendedCrop).Inc()
	c.JSON(http.StatusOK, p)
}

// predict reports a panic inside scoring as an inference error.
func (s *Server) predict(c *gin.Context) (p *predict.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.panicRecoveries.Inc()
			p, err = nil, predict.Inference(errors.Newf("%s", fmt.Sprint(r)))
		}
	}()
	req, err := DecodePredictRequest(c.Request.Body)
	if err != nil {
		return nil, err
	}
	return s.svc.Predict(req.Measurements())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type modelInfo struct {
	Model              string             `json:"model"`
	Algo               string             `json:"algo"`
	Dataset            string             `json:"dataset"`
	Seed               int64              `json:"seed"`
	TrainSize          int                `json:"trainSize"`
	TestSize           int                `json:"testSize"`
	Classes            []string           `json:"classes"`
	Features           []string           `json:"features"`
	FeatureImportances map[string]float64 `json:"featureImportances,omitempty"`
	Evaluation         models.Report      `json:"evaluation"`
	CreatedAt          string             `json:"createdAt"`
	TrainingTime       string             `json:"trainingTime"`
}

func (s *Server) handleModel(c *gin.Context) {
	md := s.svc.Metadata()
	info := modelInfo{
		Model:        s.svc.ModelName(),
		Algo:         md.Algo,
		Dataset:      md.Dataset,
		Seed:         md.Seed,
		TrainSize:    md.TrainSize,
		TestSize:     md.TestSize,
		Classes:      s.svc.Classes(),
		Features:     md.Features,
		Evaluation:   md.Evaluation,
		CreatedAt:    md.CreatedAt.Format(time.RFC3339),
		TrainingTime: md.TrainingTime.String(),
	}
	if len(md.FeatureImportances) == len(md.Features) {
		info.FeatureImportances = make(map[string]float64, len(md.Features))
		for i, name := range md.Features {
			info.FeatureImportances[name] = md.FeatureImportances[i]
		}
	}
	c.JSON(http.StatusOK, info)
}
