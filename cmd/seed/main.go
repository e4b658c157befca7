// Command seed fills the configured store with fake users, posts, likes
// and comments for local development.
package main

import (
	"context"
	"flag"
	"math/rand"
	"strings"

	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/anonto42/mini-social/backend/internal/repositories"
	"github.com/anonto42/mini-social/backend/internal/router"
	"github.com/anonto42/mini-social/backend/pkg/config"
	"github.com/anonto42/mini-social/backend/pkg/logger"
	"github.com/jaswdr/faker"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var f = faker.New()

func main() {
	numUsers := flag.Int("users", 5, "number of users to create")
	numPosts := flag.Int("posts", 20, "number of posts to create")
	password := flag.String("password", "sdfsdfsdf", "password shared by all seeded users")
	flag.Parse()

	cfg := config.Load()
	log := logger.Run(cfg.LogLevel)
	defer log.Sync()
	ctx := context.Background()

	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		log.Fatalf("seed: can't connect: %v", err)
	}
	defer db.CloseDB()

	repos, err := router.NewRepositories(ctx, db, cfg.MongoDB, false, log)
	if err != nil {
		log.Fatalf("seed: can't prepare repositories: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("seed: can't hash password: %v", err)
	}
	users := createUsers(ctx, repos.Users, *numUsers, string(hash), log)
	if len(users) == 0 {
		log.Fatal("seed: no users created")
	}

	for i := 0; i < *numPosts; i++ {
		if err := seedPost(ctx, repos.Posts, users); err != nil {
			log.Fatalf("seed: can't add post: %v", err)
		}
	}
	log.Infow("seed: done", "users", len(users), "posts", *numPosts, "mode", repos.Mode)
}

func createUsers(ctx context.Context, repo repositories.UserRepository, n int, hash string, log *zap.SugaredLogger) []*models.User {
	users := make([]*models.User, 0, n)
	for attempts := 0; len(users) < n && attempts < n*5; attempts++ {
		name := strings.ToLower(f.Person().FirstName()) + f.Numerify("##")
		u := &models.User{
			Username: name,
			Email:    name + "@" + f.Internet().FreeEmailDomain(),
			Password: hash,
		}
		if err := repo.CreateUser(ctx, u); err != nil {
			// a colliding fake name is retried with a fresh one
			log.Debugw("seed: skipping user", "username", name, "error", err)
			continue
		}
		users = append(users, u)
	}
	return users
}

func seedPost(ctx context.Context, repo repositories.PostRepository, users []*models.User) error {
	author := users[rand.Intn(len(users))]
	text := f.Lorem().Paragraph(rand.Intn(3) + 1)
	imageURL := ""
	if rand.Intn(4) == 0 {
		imageURL = "https://picsum.photos/seed/" + f.Lorem().Word() + "/600/400"
	}

	post, err := repo.CreatePost(ctx, author.ID, author.Username, text, imageURL)
	if err != nil {
		return err
	}
	for _, u := range users {
		if rand.Intn(2) == 0 {
			if _, err := repo.ToggleLike(ctx, post.ID, u.ID); err != nil {
				return err
			}
		}
	}
	for i := rand.Intn(4); i > 0; i-- {
		commenter := users[rand.Intn(len(users))]
		if _, _, err := repo.AddComment(ctx, post.ID, commenter.Username, f.Lorem().Sentence(rand.Intn(8)+3)); err != nil {
			return err
		}
	}
	return nil
}
