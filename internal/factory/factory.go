package factory

import (
	"fmt"

	"github.com/anime-shed/deepfake-inspector-go/internal/config"
	"github.com/anime-shed/deepfake-inspector-go/internal/explain"
	"github.com/anime-shed/deepfake-inspector-go/internal/face"
	"github.com/anime-shed/deepfake-inspector-go/internal/logger"
	"github.com/anime-shed/deepfake-inspector-go/internal/storage"

	"github.com/sirupsen/logrus"
)

// DetectorType represents the available face detection backends
type DetectorType string

const (
	// PigoDetector runs the pure Go cascade in process
	PigoDetector DetectorType = config.DetectorPigo
	// RemoteDetector posts images to an HTTP detection service
	RemoteDetector DetectorType = config.DetectorRemote
)

// DetectorFactory creates face detectors
type DetectorFactory interface {
	CreateDetector(detectorType DetectorType) (face.Detector, error)
}

// StorageFactory creates the media fetcher for all supported URL schemes
type StorageFactory interface {
	CreateFetcher() (storage.MediaFetcher, error)
}

type detectorFactory struct {
	cfg *config.Config
}

// NewDetectorFactory creates a detector factory reading backend settings from cfg
func NewDetectorFactory(cfg *config.Config) DetectorFactory {
	return &detectorFactory{cfg: cfg}
}

// CreateDetector creates a detector for the specified backend
func (f *detectorFactory) CreateDetector(detectorType DetectorType) (face.Detector, error) {
	var sessions face.SessionFactory
	switch detectorType {
	case PigoDetector:
		cascade, err := face.LoadPigoCascade(f.cfg.FaceCascadePath)
		if err != nil {
			return nil, err
		}
		pigoSessions, err := face.NewPigoSessionFactory(cascade, face.DefaultPigoOptions())
		if err != nil {
			return nil, err
		}
		sessions = pigoSessions
	case RemoteDetector:
		sessions = face.NewRemoteSessionFactory(f.cfg.FaceDetectorURL, f.cfg.MediaFetchTimeout)
	default:
		return nil, fmt.Errorf("unsupported detector type: %s", detectorType)
	}

	logger.WithFields(logrus.Fields{
		"detector":       detectorType,
		"min_confidence": f.cfg.FaceMinConfidence,
	}).Info("Face detector configured")
	return face.NewScopedDetector(sessions, f.cfg.FaceMinConfidence), nil
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a storage factory reading credentials from cfg
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateFetcher builds a router over HTTP plus whichever blob backends are configured
func (f *storageFactory) CreateFetcher() (storage.MediaFetcher, error) {
	router := &storage.Router{
		HTTP:    storage.NewHTTPMediaFetcher(f.cfg.MediaFetchTimeout),
		Timeout: f.cfg.MediaFetchTimeout,
	}

	if f.cfg.Azure.Enabled() {
		azure, err := storage.NewAzureBlobFetcher(f.cfg.Azure.AccountName, f.cfg.Azure.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure fetcher: %w", err)
		}
		router.Azure = azure
	}

	if f.cfg.S3.Enabled() {
		s3, err := storage.NewS3Fetcher(f.cfg.S3.Endpoint, f.cfg.S3.AccessKey, f.cfg.S3.SecretKey, f.cfg.S3.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 fetcher: %w", err)
		}
		router.S3 = s3
	}

	logger.WithFields(logrus.Fields{
		"azure": router.Azure != nil,
		"s3":    router.S3 != nil,
	}).Info("Media fetchers configured")
	return router, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	DetectorFactory DetectorFactory
	StorageFactory  StorageFactory
	cfg             *config.Config
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		DetectorFactory: NewDetectorFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
		cfg:             cfg,
	}
}

// Detector creates the detector named by FACE_DETECTOR
func (f *ComponentFactory) Detector() (face.Detector, error) {
	return f.DetectorFactory.CreateDetector(DetectorType(f.cfg.FaceDetector))
}

// Explainer creates the explanation generator, enhanced when a key is configured
func (f *ComponentFactory) Explainer() *explain.Generator {
	return explain.NewGeneratorFromConfig(f.cfg)
}
