package services

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// ErrBarcodeNotFound means no barcode digits were readable in the photo.
var ErrBarcodeNotFound = errors.New("no barcode found in photo")

// BarcodeDecoder extracts a product barcode from a base64 data-URI image.
type BarcodeDecoder interface {
	Decode(ctx context.Context, base64Img string) (string, error)
}

// RekognitionBarcodeService reads the digit line printed under a barcode
// via Rekognition text detection. EAN/UPC codes are 8 to 13 digits.
type RekognitionBarcodeService struct {
	client *rekognition.Client
}

var barcodeDigits = regexp.MustCompile(`^[0-9]{8,13}$`)

func NewRekognitionBarcodeService() (*RekognitionBarcodeService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, err
	}
	return &RekognitionBarcodeService{client: rekognition.NewFromConfig(cfg)}, nil
}

func (r *RekognitionBarcodeService) Decode(ctx context.Context, base64Img string) (string, error) {
	data, err := decodeDataURI(base64Img)
	if err != nil {
		return "", err
	}

	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: data},
	})
	if err != nil {
		return "", err
	}

	for _, d := range out.TextDetections {
		if d.Type != types.TextTypesLine {
			continue
		}
		// digit groups are often spaced, e.g. "4 600682 000129"
		text := strings.ReplaceAll(aws.ToString(d.DetectedText), " ", "")
		if barcodeDigits.MatchString(text) {
			return text, nil
		}
	}
	return "", ErrBarcodeNotFound
}

func decodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, "data:image") {
		return nil, errors.New("invalid data URI")
	}
	idx := strings.Index(uri, ",")
	if idx < 0 {
		return nil, errors.New("invalid data URI")
	}
	return base64.StdEncoding.DecodeString(uri[idx+1:])
}
