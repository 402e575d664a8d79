package graph

import (
	"context"

	"bitwise74/blog-api/app/post"
	"bitwise74/blog-api/app/user"
	"bitwise74/blog-api/internal"

	"github.com/graph-gophers/graphql-go"
)

// Resolver serves both RootQuery and RootMutation
type Resolver struct {
	d *internal.Deps
}

type userInputData struct {
	Email    string
	Name     string
	Password string
}

type postInputData struct {
	Title    string
	ImageURL *string
	Content  string
}

func (i *postInputData) input() post.Input {
	// A missing input object fails validation like an empty one
	if i == nil {
		return post.Input{}
	}

	return post.Input{
		Title:    i.Title,
		Content:  i.Content,
		ImageURL: i.ImageURL,
	}
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authDataResolver, error) {
	data, err := user.Login(ctx, r.d, args.Email, args.Password)
	if err != nil {
		return nil, err
	}

	return &authDataResolver{data: data}, nil
}

func (r *Resolver) Posts(ctx context.Context, args struct{ Pages int32 }) (*postDataResolver, error) {
	page, err := post.List(ctx, r.d, int(args.Pages))
	if err != nil {
		return nil, err
	}

	return &postDataResolver{d: r.d, page: page}, nil
}

func (r *Resolver) Post(ctx context.Context, args struct{ PostID graphql.ID }) (*postResolver, error) {
	p, err := post.Get(ctx, r.d, string(args.PostID))
	if err != nil {
		return nil, err
	}

	return &postResolver{d: r.d, p: p}, nil
}

func (r *Resolver) User(ctx context.Context) (*userResolver, error) {
	u, err := user.CurrentUser(ctx, r.d)
	if err != nil {
		return nil, err
	}

	return &userResolver{d: r.d, u: u}, nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ UserInput *userInputData }) (*userResolver, error) {
	in := user.RegisterInput{}
	if args.UserInput != nil {
		in = user.RegisterInput{
			Email:    args.UserInput.Email,
			Name:     args.UserInput.Name,
			Password: args.UserInput.Password,
		}
	}

	u, err := user.Register(ctx, r.d, in)
	if err != nil {
		return nil, err
	}

	return &userResolver{d: r.d, u: u}, nil
}

func (r *Resolver) CreatePost(ctx context.Context, args struct{ PostInput *postInputData }) (*postResolver, error) {
	p, err := post.Create(ctx, r.d, args.PostInput.input())
	if err != nil {
		return nil, err
	}

	return &postResolver{d: r.d, p: p}, nil
}

func (r *Resolver) UpdatePost(ctx context.Context, args struct {
	ID        graphql.ID
	PostInput *postInputData
}) (*postResolver, error) {
	p, err := post.Update(ctx, r.d, string(args.ID), args.PostInput.input())
	if err != nil {
		return nil, err
	}

	return &postResolver{d: r.d, p: p}, nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ PostID graphql.ID }) (*bool, error) {
	ok, err := post.Delete(ctx, r.d, string(args.PostID))
	if err != nil {
		return nil, err
	}

	return &ok, nil
}

func (r *Resolver) UpdateStatus(ctx context.Context, args struct{ Status string }) (*userResolver, error) {
	u, err := user.UpdateStatus(ctx, r.d, args.Status)
	if err != nil {
		return nil, err
	}

	return &userResolver{d: r.d, u: u}, nil
}
