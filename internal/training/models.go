package training

import "github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/cleaning"

// JobSpec describes one training run of the ensemble classifier.
type JobSpec struct {
	// TrainDataS3URI points at the labeled training CSV produced by the
	// cleaning stage (label first, then the canonical feature columns).
	TrainDataS3URI string `json:"train_data_s3_uri"`
	// OutputS3URI receives the model artifact.
	OutputS3URI string `json:"output_s3_uri"`
	// Hyperparameters are passed through to the managed trainer untouched.
	Hyperparameters map[string]string `json:"hyperparameters,omitempty"`
}

// DefaultHyperparameters mirrors the tutorial's classifier settings.
func DefaultHyperparameters() map[string]string {
	return map[string]string{
		"objective":  "binary:logistic",
		"num_round":  "100",
		"max_depth":  "5",
		"eta":        "0.2",
		"subsample":  "0.8",
		"eval_metric": "auc",
	}
}

// TrainResult reports a completed training job.
type TrainResult struct {
	JobName          string `json:"job_name"`
	ModelArtifactURI string `json:"model_artifact_uri"`
}

// PredictRequest is the JSON batch sent to the endpoint. Records carry the
// canonical feature names; field order is irrelevant.
type PredictRequest struct {
	Instances []cleaning.FeatureRecord `json:"instances"`
}

// Prediction is one per-record answer from the endpoint.
type Prediction struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
}

// PredictResponse is the endpoint's reply for one batch.
type PredictResponse struct {
	Predictions []Prediction `json:"predictions"`
}
