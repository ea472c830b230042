package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/damacus/iron-browse/internal/models"
)

// Account lists containers and opens one for browsing
type Account interface {
	ListContainers(ctx context.Context) ([]models.ContainerInfo, error)
	OpenContainer(ctx context.Context, name string) (Handle, error)
}

// Handle is bound to one open container. It is the only way to read or
// write objects and is safe for concurrent use.
type Handle interface {
	Container() string
	ListEntries(ctx context.Context, prefix, token string) (models.Page, error)
	ListAll(ctx context.Context, prefix string) ([]models.ObjectRecord, error)
	GetMetadata(ctx context.Context, key string) (models.File, error)
	Download(ctx context.Context, key string) (io.ReadCloser, int64, error)
	ReadHead(ctx context.Context, key string, n int64) ([]byte, error)
	Copy(ctx context.Context, src, dst string) error
	Remove(ctx context.Context, key string) error
}

// Store implements Account on top of a MinIO client
type Store struct {
	client   MinioClient
	admin    MinioAdminClient
	pageSize int
}

// NewStore creates a Store. admin may be nil; container sizes are then unknown.
func NewStore(client MinioClient, admin MinioAdminClient) *Store {
	return &Store{client: client, admin: admin, pageSize: DefaultPageSize}
}

// Connect builds the clients for creds through factory
func Connect(factory MinioClientFactory, creds Credentials) (*Store, error) {
	client, err := factory.NewClient(creds)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	// Sizes are optional, a missing admin client is not fatal
	admin, err := factory.NewAdminClient(creds)
	if err != nil {
		admin = nil
	}
	return NewStore(client, admin), nil
}

// ListContainers returns the buckets sorted by name, with sizes when the
// server reports data usage
func (s *Store) ListContainers(ctx context.Context) ([]models.ContainerInfo, error) {
	buckets, err := s.client.ListBuckets(ctx)
	if err != nil {
		return nil, Wrap("list containers", err)
	}

	var sizes map[string]uint64
	if s.admin != nil {
		if usage, err := s.admin.DataUsageInfo(ctx); err == nil {
			sizes = usage.BucketSizes
		}
	}

	containers := make([]models.ContainerInfo, 0, len(buckets))
	for _, b := range buckets {
		info := models.ContainerInfo{Name: b.Name, CreationDate: b.CreationDate}
		if size, ok := sizes[b.Name]; ok {
			info.Size = size
			info.SizeKnown = true
		}
		containers = append(containers, info)
	}
	sort.Slice(containers, func(i, j int) bool { return containers[i].Name < containers[j].Name })
	return containers, nil
}

// OpenContainer checks that the bucket exists and returns a handle to it
func (s *Store) OpenContainer(ctx context.Context, name string) (Handle, error) {
	ok, err := s.client.BucketExists(ctx, name)
	if err != nil {
		return nil, Wrap("open container", err)
	}
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "open container", Err: fmt.Errorf("container %q does not exist", name)}
	}
	return &Container{client: s.client, bucket: name, pageSize: s.pageSize}, nil
}

// Container implements Handle for one bucket
type Container struct {
	client   MinioClient
	bucket   string
	pageSize int
}

func (c *Container) Container() string { return c.bucket }

// ListEntries returns one page of the recursive listing under prefix
func (c *Container) ListEntries(ctx context.Context, prefix, token string) (models.Page, error) {
	result, err := c.client.ListObjectsPaginated(ctx, c.bucket, ListObjectsOptions{
		Prefix:            prefix,
		Recursive:         true,
		MaxKeys:           c.pageSize,
		ContinuationToken: token,
	})
	if err != nil {
		return models.Page{}, Wrap("list entries", err)
	}

	page := models.Page{Objects: make([]models.ObjectRecord, 0, len(result.Objects))}
	for _, obj := range result.Objects {
		page.Objects = append(page.Objects, models.ObjectRecord{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         strings.Trim(obj.ETag, `"`),
		})
	}
	if result.IsTruncated {
		page.NextToken = result.NextContinuationToken
	}
	return page, nil
}

// ListAll follows continuation tokens until the listing under prefix is complete
func (c *Container) ListAll(ctx context.Context, prefix string) ([]models.ObjectRecord, error) {
	var all []models.ObjectRecord
	token := ""
	for {
		page, err := c.ListEntries(ctx, prefix, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Objects...)
		if page.NextToken == "" || page.NextToken == token {
			return all, nil
		}
		token = page.NextToken
	}
}

// GetMetadata stats key and fetches its tags. Tag failures are ignored.
func (c *Container) GetMetadata(ctx context.Context, key string) (models.File, error) {
	info, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return models.File{}, Wrap("get metadata", err)
	}

	file := models.File{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ETag:         strings.Trim(info.ETag, `"`),
		ContentType:  info.ContentType,
		StorageClass: info.StorageClass,
		VersionID:    info.VersionID,
		UserMetadata: map[string]string(info.UserMetadata),
	}
	if file.Key == "" {
		file.Key = key
	}

	if objTags, err := c.client.GetObjectTagging(ctx, c.bucket, key, minio.GetObjectTaggingOptions{}); err == nil && objTags != nil {
		file.Tags = objTags.ToMap()
	}
	return file, nil
}

// Download opens a stream of key together with its size
func (c *Container) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	reader, size, err := c.client.GetObjectReader(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, Wrap("download", err)
	}
	return reader, size, nil
}

// ReadHead reads at most n bytes from the start of key
func (c *Container) ReadHead(ctx context.Context, key string, n int64) ([]byte, error) {
	opts := minio.GetObjectOptions{}
	if n > 0 {
		if err := opts.SetRange(0, n-1); err != nil {
			return nil, err
		}
	}
	reader, _, err := c.client.GetObjectReader(ctx, c.bucket, key, opts)
	if err != nil {
		return nil, Wrap("read", err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(io.LimitReader(reader, n))
	if err != nil {
		return nil, Wrap("read", err)
	}
	return data, nil
}

// Copy performs a server side copy of src to dst within the container
func (c *Container) Copy(ctx context.Context, src, dst string) error {
	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: c.bucket, Object: src},
	)
	return Wrap("copy", err)
}

// Remove deletes key
func (c *Container) Remove(ctx context.Context, key string) error {
	return Wrap("remove", c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}))
}
