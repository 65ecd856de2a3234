package steps

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"ivory/internal/answers"
	"ivory/internal/platform/config"
	"ivory/internal/wizard"
	dErrors "ivory/pkg/domain-errors"
)

const filesField = "files"

var (
	photoExtensions    = []string{".jpg", ".jpeg", ".png"}
	documentExtensions = []string{".pdf", ".doc", ".docx", ".jpg", ".jpeg", ".png"}
)

// uploadKind describes one of the two upload flows.
type uploadKind struct {
	codec      answers.Codec[answers.UploadedFiles]
	extensions []string
	maxFiles   int
	maxBytes   int64
	optional   bool
	noun       string
	typeText   string
}

type upload struct {
	page
	kind uploadKind
}

type fileList struct {
	page
	kind uploadKind
}

func uploadSteps(d Deps) []wizard.Step {
	limits := uploadDefaults(d.Upload)
	photos := uploadKind{
		codec:      answers.PhotosCodec,
		extensions: photoExtensions,
		maxFiles:   limits.MaxPhotos,
		maxBytes:   limits.MaxFileBytes,
		noun:       "photo",
		typeText:   "The file must be a JPG or PNG",
	}
	documents := uploadKind{
		codec:      answers.DocumentsCodec,
		extensions: documentExtensions,
		maxFiles:   limits.MaxDocuments,
		maxBytes:   limits.MaxFileBytes,
		optional:   true,
		noun:       "document",
		typeText:   "The file must be a PDF, DOC, DOCX, JPG or PNG",
	}
	needsPhotos := []answers.Key{answers.UploadPhoto}
	needsDocs := []answers.Key{answers.UploadDocument}
	return []wizard.Step{
		upload{page: page{
			id:     UploadPhotos,
			title:  "Add a photo of your item",
			back:   LegalResponsibility,
			needs:  needsPhotos,
			routes: next(YourPhotos),
		}, kind: photos},
		fileList{page: page{
			id:    YourPhotos,
			title: "Your photos",
			back:  UploadPhotos,
			needs: needsPhotos,
			routes: wizard.Routes{
				routeContinue: DescribeTheItem,
				routeEmpty:    UploadPhotos,
				routeRemoved:  YourPhotos,
			},
		}, kind: photos},
		upload{page: page{
			id:    UploadDocument,
			title: "Add documents to support your application",
			back:  WhyIsItemRMI,
			needs: needsDocs,
			routes: wizard.Routes{
				routeContinue: YourDocuments,
				routeSkip:     WhoOwnsItem,
			},
		}, kind: documents},
		fileList{page: page{
			id:    YourDocuments,
			title: "Your documents",
			back:  UploadDocument,
			needs: needsDocs,
			routes: wizard.Routes{
				routeContinue: WhoOwnsItem,
				routeEmpty:    UploadDocument,
				routeRemoved:  YourDocuments,
			},
		}, kind: documents},
	}
}

// stored decodes the files already uploaded. Malformed data reads as none;
// Decide reports it.
func (k uploadKind) stored(snap answers.Snapshot) answers.UploadedFiles {
	files, _, err := answers.Decode(snap, k.codec)
	if err != nil {
		return answers.UploadedFiles{}
	}
	return files
}

func (s upload) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	files, _, err := answers.Decode(snap, s.kind.codec)
	if err != nil {
		return wizard.Presentation{}, err
	}
	p := s.frame(nil)
	p.Content = map[string]any{
		"uploaded":   files.Len(),
		"maxFiles":   s.kind.maxFiles,
		"maxBytes":   s.kind.maxBytes,
		"extensions": s.kind.extensions,
		"optional":   s.kind.optional,
	}
	return p, nil
}

func (s upload) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	k := s.kind
	if sub.UploadErr != nil {
		if errors.Is(sub.UploadErr, wizard.ErrUploadTooLarge) {
			c.Fail(filesField, tooLargeText(k.maxBytes))
		} else {
			c.Fail(filesField, "The selected file could not be uploaded. Try again")
		}
		return c.Errors()
	}

	existing := k.stored(sub.Answers)
	if len(sub.Files) == 0 {
		if !k.optional && existing.Len() == 0 {
			c.Fail(filesField, fmt.Sprintf("You must choose a %s to upload", k.noun))
		}
		return c.Errors()
	}
	if existing.Len()+len(sub.Files) > k.maxFiles {
		c.Fail(filesField, fmt.Sprintf("You can only upload %d %ss", k.maxFiles, k.noun))
		return c.Errors()
	}

	seen := map[string]bool{}
	for _, f := range sub.Files {
		name := filepath.Base(f.Name)
		switch {
		case len(f.Data) == 0:
			c.Fail(filesField, "The file cannot be empty")
		case int64(len(f.Data)) > k.maxBytes:
			c.Fail(filesField, tooLargeText(k.maxBytes))
		case !slices.Contains(k.extensions, strings.ToLower(filepath.Ext(name))):
			c.Fail(filesField, k.typeText)
		case existing.Contains(name) || seen[name]:
			c.Fail(filesField, fmt.Sprintf("You've already uploaded %s. Choose a different file", name))
		}
		seen[name] = true
		if c.Has(filesField) {
			break
		}
	}
	return c.Errors()
}

func (s upload) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	files, _, err := answers.Decode(sub.Answers, s.kind.codec)
	if err != nil {
		return wizard.Decision{}, err
	}
	if len(sub.Files) == 0 {
		if files.Len() == 0 {
			return wizard.Go(routeSkip), nil
		}
		return wizard.Go(routeContinue), nil
	}
	for _, f := range sub.Files {
		files.Files = append(files.Files, filepath.Base(f.Name))
		files.FileData = append(files.FileData, base64.StdEncoding.EncodeToString(f.Data))
		files.FileSizes = append(files.FileSizes, int64(len(f.Data)))
	}
	raw, err := s.kind.codec.Encode(files)
	if err != nil {
		return wizard.Decision{}, err
	}
	return wizard.Go(routeContinue).Write(s.kind.codec.Key, raw), nil
}

func tooLargeText(maxBytes int64) string {
	return fmt.Sprintf("The file must be smaller than %dmb", maxBytes>>20)
}

func (s fileList) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	files, _, err := answers.Decode(snap, s.kind.codec)
	if err != nil {
		return wizard.Presentation{}, err
	}
	p := s.frame(nil)
	p.Content = map[string]any{
		"files":      append([]string{}, files.Files...),
		"fileSizes":  append([]int64{}, files.FileSizes...),
		"canAddMore": files.Len() < s.kind.maxFiles,
	}
	return p, nil
}

func (fileList) Validate(*wizard.Submission) []wizard.FieldError { return nil }

func (s fileList) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	files, _, err := answers.Decode(sub.Answers, s.kind.codec)
	if err != nil {
		return wizard.Decision{}, err
	}
	if files.Len() == 0 {
		return wizard.Go(routeEmpty), nil
	}
	return wizard.Go(routeContinue), nil
}

// Remove drops the file at index. Removing the last file clears the answer
// and goes back to the upload page.
func (s fileList) Remove(snap answers.Snapshot, index int) (wizard.Decision, error) {
	files, _, err := answers.Decode(snap, s.kind.codec)
	if err != nil {
		return wizard.Decision{}, err
	}
	if index < 0 || index >= files.Len() {
		return wizard.Decision{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no %s at position %d", s.kind.noun, index))
	}
	files = files.Without(index)
	if files.Len() == 0 {
		return wizard.Go(routeEmpty).Delete(s.kind.codec.Key), nil
	}
	raw, err := s.kind.codec.Encode(files)
	if err != nil {
		return wizard.Decision{}, err
	}
	return wizard.Go(routeRemoved).Write(s.kind.codec.Key, raw), nil
}

var _ wizard.Remover = fileList{}

// Defaults keep zero-valued upload config usable in tests.
func uploadDefaults(c config.UploadConfig) config.UploadConfig {
	d := config.Default().Upload
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = d.MaxFileBytes
	}
	if c.MaxPhotos <= 0 {
		c.MaxPhotos = d.MaxPhotos
	}
	if c.MaxDocuments <= 0 {
		c.MaxDocuments = d.MaxDocuments
	}
	return c
}
