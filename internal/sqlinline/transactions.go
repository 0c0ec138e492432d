package sqlinline

const QInsertTransaction = `--sql adfb6b79-d0e7-4e9e-b9f4-5142a8ebfdea
insert into transactions (
    razorpay_payment_id, user_email, amount, currency, items, country, status, render_status, created_at, updated_at
)
values ($1::text, $2::text, $3::bigint, $4::text, $5::text[], $6::text, $7::text, $8::text, now(), now())
on conflict (razorpay_payment_id) do update set
    status = excluded.status,
    render_status = excluded.render_status,
    updated_at = now();
`

const QUpdateTransactionStatus = `--sql d6864890-99ff-4fad-916c-9067fa798abc
update transactions
set status = $2::text,
    render_status = $3::text,
    updated_at = now()
where razorpay_payment_id = $1::text;
`

// Fallback for stores whose transactions table predates the render_status
// column. Keeps the audit write alive instead of failing the whole update.
const QUpdateTransactionStatusLegacy = `--sql da32952c-2a88-47b2-a584-858c18e76d50
update transactions
set status = $2::text,
    updated_at = now()
where razorpay_payment_id = $1::text;
`

const QSelectTransaction = `--sql 28fac727-4900-4d9f-b785-12072b6f6096
select razorpay_payment_id, user_email, amount, currency, items, country, status, render_status, created_at, updated_at
from transactions
where razorpay_payment_id = $1::text;
`
