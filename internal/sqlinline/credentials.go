package sqlinline

const QListCredentialPool = `--sql 67917b5d-d6fa-4bf4-924c-18f64d2b61c2
select id, secret, label, status
from api_credentials
order by created_at asc;
`

const QUpdateCredentialStatus = `--sql 2f13bd26-5015-436c-adab-c955fc531e97
update api_credentials
set status = $2::text, updated_at = now()
where id = $1::uuid;
`

const QInsertCredential = `--sql 6441f3d8-87cb-4284-bfb6-f412077fad21
insert into api_credentials (id, secret, label, status, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, 'active', now(), now())
returning id;
`
